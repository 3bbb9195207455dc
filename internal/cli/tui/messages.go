package tui

import "github.com/kailas-cloud/searchwire"

// snapshotMsg carries an aggregated search snapshot into the message loop.
type snapshotMsg struct {
	snap searchwire.Snapshot
}

// streamClosedMsg signals that the search has delivered its final snapshot.
type streamClosedMsg struct{}
