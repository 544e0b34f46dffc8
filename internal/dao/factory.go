// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of ivs

package dao

import (
	"github.com/inventiv/ivs/internal/client"
)

// APIFactory implements the Factory interface over a control plane connection
// and an optional trace archive.
type APIFactory struct {
	client  client.Connection
	archive ArchiveStore
	profile string
}

// NewFactory creates a new APIFactory with the given client.
func NewFactory(conn client.Connection, archive ArchiveStore) *APIFactory {
	var profile string
	if conn != nil {
		profile = conn.ActiveProfile()
	}
	return &APIFactory{
		client:  conn,
		archive: archive,
		profile: profile,
	}
}

// Client returns the control plane connection.
func (f *APIFactory) Client() client.Connection {
	return f.client
}

// Archive returns the trace archive, nil when none is configured.
func (f *APIFactory) Archive() ArchiveStore {
	return f.archive
}

// Profile returns the current API profile.
func (f *APIFactory) Profile() string {
	if f.client != nil {
		return f.client.ActiveProfile()
	}
	return f.profile
}

// SetProfile switches to a different API profile.
func (f *APIFactory) SetProfile(profile string) error {
	if f.client == nil {
		return client.ErrNoConnection
	}
	err := f.client.SwitchProfile(profile)
	if err == nil {
		f.profile = profile
	}
	return err
}
