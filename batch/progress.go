// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"log"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

const defaultProgressEvery = 100

// progress renders a bar on a terminal and periodic log lines otherwise.
type progress struct {
	bar   *progressbar.ProgressBar
	stats *Stats
	total int
	every int64
}

func newProgress(total int, stats *Stats, opts Options) *progress {
	p := &progress{stats: stats, total: total, every: int64(opts.ProgressEvery)}
	if p.every <= 0 {
		p.every = defaultProgressEvery
	}

	if !opts.DisableProgressBar && total > 0 && isatty.IsTerminal(os.Stderr.Fd()) {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Geocoding"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	return p
}

// add reports that one more resolved record is done; n is the running count.
func (p *progress) add(n int64) {
	if p.bar != nil {
		if err := p.bar.Add(1); err != nil {
			log.Printf("Updating progress bar: %v", err)
		}

		return
	}

	if n%p.every == 0 {
		s := p.stats.Snapshot()
		log.Printf("Progress: %d/%d rows - Success rate: %.1f%%", n, p.total, s.SuccessRate())
	}
}

func (p *progress) finish() {
	if p.bar != nil {
		if err := p.bar.Finish(); err != nil {
			log.Printf("Closing progress bar: %v", err)
		}
	}
}
