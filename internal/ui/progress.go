package ui

import (
	"fmt"
	"io"
	"math"

	"wsdrop/pkg/utils"

	"github.com/schollz/progressbar/v3"
)

// ProgressUI draws the displayed percent of one transfer
type ProgressUI struct {
	bar *progressbar.ProgressBar
}

// NewProgressUI creates a bar scaled to 0..100 for filename
func NewProgressUI(out io.Writer, filename string, totalBytes int64) *ProgressUI {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription(fmt.Sprintf("Sending %s (%s)", filename, utils.FormatFileSize(totalBytes))),
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(false),
	)
	return &ProgressUI{bar: bar}
}

// Update renders displayed; only an exact 100 fills the bar
func (p *ProgressUI) Update(displayed float64) {
	_ = p.bar.Set(int(math.Floor(displayed)))
}

// Complete fills the bar
func (p *ProgressUI) Complete() {
	_ = p.bar.Finish()
}
