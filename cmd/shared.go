package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/eslsoft/hanguru/internal/entity"
	"github.com/eslsoft/hanguru/internal/usecase/validation"
)

func bindFlagToViper(key string, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// loadDataset reads and strictly decodes a lesson dataset document.
func loadDataset(path string) (*entity.Dataset, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()
	return validation.DecodeDataset(file)
}

type cliProgress struct {
	out         io.Writer
	total       int
	count       int
	lastPrinted int
	step        int
}

func newCLIProgress(out io.Writer) *cliProgress {
	return &cliProgress{out: out}
}

func (p *cliProgress) Start(total int) {
	if total < 0 {
		total = 0
	}
	p.total = total
	p.count = 0
	p.lastPrinted = 0
	p.step = progressStep(total)
	fmt.Fprintf(p.out, "starting export (%d submissions)\n", total)
}

func (p *cliProgress) Increment(delta int) {
	if delta <= 0 {
		return
	}
	p.count += delta
	step := p.step
	if step <= 0 {
		step = 1
	}
	if p.count == p.total || p.lastPrinted == 0 || p.count-p.lastPrinted >= step {
		p.printProgress()
		p.lastPrinted = p.count
	}
}

func (p *cliProgress) Finish() {
	if p.count != p.lastPrinted {
		p.printProgress()
	}
	if p.total > 0 {
		fmt.Fprintf(p.out, "export finished: %d/%d submissions\n", p.count, p.total)
	} else {
		fmt.Fprintf(p.out, "export finished: %d submissions\n", p.count)
	}
}

func (p *cliProgress) printProgress() {
	if p.total > 0 {
		fmt.Fprintf(p.out, "export progress: %d/%d\n", p.count, p.total)
	} else {
		fmt.Fprintf(p.out, "export progress: %d submissions processed\n", p.count)
	}
}

func progressStep(total int) int {
	if total <= 0 {
		return 1000
	}
	step := total / 20
	if step < 1 {
		step = 1
	}
	if step > 1000 {
		step = 1000
	}
	return step
}
