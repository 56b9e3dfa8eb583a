package contracts

import contractports "desktop-shell/go-backend/internal/domains/contracts/ports"

type BridgeAPI = contractports.BridgeAPI
type LifecycleAPI = contractports.LifecycleAPI
type HostService = contractports.HostService
type NotificationEvent = contractports.NotificationEvent
type OpMetric = contractports.OpMetric
type HostStatus = contractports.HostStatus
type CategorizedError = contractports.CategorizedError
type BridgeError = contractports.BridgeError
