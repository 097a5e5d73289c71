// Package types provides shared data structures for the spendguard pipeline.
//
// This package defines the types that flow between page contexts, the
// background router, and the remote ledger, keeping the wire format in one
// place.
//
// Core Types:
//   - ProductDescriptor: Best-effort product read from a page
//   - PurchaseEvent: Durable record of a confirmed purchase
//   - SpendingCheck: Result of a remote budget evaluation
//   - WebsiteVisit: Passive tab/visit bookkeeping entry
//   - UserProfile: Identity copied in by the sign-in bridge
//
// Router Types:
//   - Service, Tool, Parameter: Provider definitions
//   - Context: Per-request execution context
//   - Result: Standard operation result
//   - WSRequest, WSResponse: WebSocket envelope
package types
