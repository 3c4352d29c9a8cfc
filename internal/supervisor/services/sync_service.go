// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package services

import "context"

// StartStopManager matches the sync manager's lifecycle.
type StartStopManager interface {
	Start(ctx context.Context)
	Stop()
}

// SyncService adapts the sync manager's Start/Stop lifecycle to
// suture's Serve pattern.
type SyncService struct {
	manager StartStopManager
}

// NewSyncService wraps manager as a supervised service.
func NewSyncService(manager StartStopManager) *SyncService {
	return &SyncService{manager: manager}
}

// Serve implements suture.Service: start the manager's internal loop,
// block until shutdown, then stop it and wait for its goroutines.
func (s *SyncService) Serve(ctx context.Context) error {
	s.manager.Start(ctx)
	<-ctx.Done()
	s.manager.Stop()
	return nil
}

func (s *SyncService) String() string { return "sync-manager" }
