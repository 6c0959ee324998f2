// devpreview_headless.go - no-op developer preview backend for headless
// builds (spec.md §1.1, §11).
//
// Grounded on the teacher's audio_backend_headless.go: same public
// surface as the real backend, every method a no-op.
//
// Licensed under the GNU General Public License v3.0 or later.

//go:build headless

package main

import "context"

type DevPreview struct{}

func newDevPreview(e *Engine, headless bool) *DevPreview {
	return &DevPreview{}
}

func (p *DevPreview) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}
