// Package pipeline renames confirmed documents and delivers them to the print
// shop operator and back to the customer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/m3rciful/printbot/core/logger"
	"github.com/m3rciful/printbot/internal/order"
	"github.com/m3rciful/printbot/internal/scratch"
)

const component = "pipeline"

const (
	msgUserDone     = "All files have been successfully processed and sent to you."
	msgOperatorDone = "All files have been processed and forwarded to the user."
)

// Courier is the transport used by the pipeline.
type Courier interface {
	Fetch(ctx context.Context, f order.FileRef, dst string) error
	SendDocument(ctx context.Context, chatID int64, path, caption string) error
	Text(ctx context.Context, chatID int64, text string) error
}

// Options configures a Pipeline.
type Options struct {
	OperatorID int64
	Caption    string
	TempDir    string
}

// Pipeline processes the files of a confirmed session one at a time, in upload order.
type Pipeline struct {
	courier Courier
	opts    Options
}

// New returns a Pipeline.
func New(courier Courier, opts Options) *Pipeline {
	if opts.Caption == "" {
		opts.Caption = "Renamed File"
	}
	return &Pipeline{courier: courier, opts: opts}
}

// DestinationName builds {username}_{printType}_{quantity}copies_{sides}.{ext}.
func DestinationName(username string, cfg order.PrintConfig, original string) string {
	name := strings.Join([]string{
		usernameToken(username),
		string(cfg.Type),
		strconv.Itoa(cfg.Quantity) + "copies",
		string(cfg.Sides),
	}, "_")
	if ext := strings.TrimPrefix(filepath.Ext(scratch.SafeName(original)), "."); ext != "" {
		name += "." + ext
	}
	return name
}

func usernameToken(u string) string {
	u = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '-'
		}
		return r
	}, strings.TrimSpace(u))
	if u == "" {
		return "user"
	}
	return u
}

// Process runs every file through fetch, rename, send to operator, send to user.
// A failing step is logged and reported to the user and the next file is taken;
// nothing aborts the batch. Completion notices are always sent at the end.
func (p *Pipeline) Process(ctx context.Context, s order.Session) order.Report {
	var report order.Report

	dir, err := scratch.New(p.opts.TempDir, s.UserID)
	if err != nil {
		logger.Error(ctx, component, "pipeline.scratch", logger.Err(err))
		for _, f := range s.Files {
			p.fail(ctx, s, &report, order.FileFailure{File: f, Step: order.StepFetch, Err: fmt.Errorf("%w: %v", order.ErrTransferFailure, err)})
		}
	} else {
		for i, f := range s.Files {
			if fail := p.processFile(ctx, s, dir, i, f); fail != nil {
				p.fail(ctx, s, &report, *fail)
				continue
			}
			report.Delivered = append(report.Delivered, f)
			logger.Debug(ctx, component, "pipeline.delivered", slog.String("file", logger.SanitizeLimit(f.Name, 128)))
		}
		if err := dir.Remove(); err != nil {
			logger.Warn(ctx, component, "pipeline.cleanup", logger.Err(err))
		}
	}

	p.notifyDone(ctx, s)
	return report
}

func (p *Pipeline) processFile(ctx context.Context, s order.Session, dir *scratch.Dir, i int, f order.FileRef) *order.FileFailure {
	failure := func(step order.Step, err error) *order.FileFailure {
		return &order.FileFailure{File: f, Step: step, Err: fmt.Errorf("%w: %v", order.ErrTransferFailure, err)}
	}

	// Each file gets its own subdirectory: the destination name depends only on
	// the configuration, so two files with the same options would otherwise clash.
	work := filepath.Join(dir.Root(), strconv.Itoa(i))
	if err := os.Mkdir(work, 0o700); err != nil {
		return failure(order.StepFetch, err)
	}
	defer os.RemoveAll(work)

	tmp := filepath.Join(work, "download-"+scratch.SafeName(f.Name))
	if err := p.courier.Fetch(ctx, f, tmp); err != nil {
		return failure(order.StepFetch, err)
	}

	dst := filepath.Join(work, DestinationName(s.Username, s.Config(f), f.Name))
	if err := os.Rename(tmp, dst); err != nil {
		return failure(order.StepRename, err)
	}

	if err := p.courier.SendDocument(ctx, p.opts.OperatorID, dst, p.opts.Caption); err != nil {
		return failure(order.StepToOperator, err)
	}
	if err := p.courier.SendDocument(ctx, s.ChatID, dst, p.opts.Caption); err != nil {
		return failure(order.StepToUser, err)
	}
	return nil
}

func (p *Pipeline) fail(ctx context.Context, s order.Session, report *order.Report, f order.FileFailure) {
	report.Failed = append(report.Failed, f)
	logger.Error(ctx, component, "pipeline.file_failed",
		slog.String("status", "fail"),
		slog.String("file", logger.SanitizeLimit(f.File.Name, 128)),
		slog.String("step", string(f.Step)),
		logger.Err(f.Err),
	)
	text := "Failed to " + strings.TrimPrefix(f.Error(), "failed to ")
	if err := p.courier.Text(ctx, s.ChatID, text); err != nil {
		logger.Warn(ctx, component, "pipeline.report_failed", logger.Err(err))
	}
}

func (p *Pipeline) notifyDone(ctx context.Context, s order.Session) {
	err := errors.Join(
		p.courier.Text(ctx, s.ChatID, msgUserDone),
		p.courier.Text(ctx, p.opts.OperatorID, msgOperatorDone),
	)
	if err != nil {
		logger.Warn(ctx, component, "pipeline.notify_done", logger.Err(err))
	}
}
