// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ManuGH/srtcheck/internal/capture"
	"github.com/ManuGH/srtcheck/internal/clip"
	"github.com/ManuGH/srtcheck/internal/recorder"
	"github.com/ManuGH/srtcheck/internal/report"
	"github.com/ManuGH/srtcheck/internal/validation"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runUpload(ctx context.Context, c *cli, args []string) error {
	fs, configPath := newFlagSet(c, "upload")
	exportPath := fs.String("export", "", "also write the report as JSON to this file")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	validateOnly := fs.Bool("validate-only", false, "check the file without submitting it")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(c.stderr, "Usage: srtcheck upload [flags] <video file>")
		return errUsage
	}

	return withApp(ctx, c, *configPath, func(ctx context.Context, a *app) error {
		candidate, err := capture.FromFile(fs.Arg(0))
		if err != nil {
			return err
		}
		return a.offerAndAnalyse(ctx, candidate, *validateOnly, *exportPath, *asJSON)
	})
}

func runRecord(ctx context.Context, c *cli, args []string) error {
	fs, configPath := newFlagSet(c, "record")
	exportPath := fs.String("export", "", "also write the report as JSON to this file")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	savePath := fs.String("save", "", "keep the recorded clip at this path")
	validateOnly := fs.Bool("validate-only", false, "record and check the clip without submitting it")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	return withApp(ctx, c, *configPath, func(ctx context.Context, a *app) error {
		recorded, err := a.record(ctx)
		if err != nil {
			return err
		}
		if *savePath != "" {
			if err := recorded.Save(*savePath); err != nil {
				return err
			}
			fmt.Fprintf(c.stderr, "Clip saved to %s\n", *savePath)
		}
		return a.offerAndAnalyse(ctx, recorded, *validateOnly, *exportPath, *asJSON)
	})
}

// record runs one live session. Enter on stdin stops it early.
func (a *app) record(ctx context.Context) (clip.Clip, error) {
	w := a.cli.stderr
	dev := capture.NewDevice(capture.DeviceConfig{
		FFmpegBin: a.cfg.FFmpegBin,
		Format:    a.cfg.CaptureFormat,
		Device:    a.cfg.CaptureDevice,
	})
	ctrl := recorder.New(dev, recorder.WithTickHook(func(elapsed int) {
		fmt.Fprintf(w, "\rRecording %2ds / %ds", elapsed, int(clip.MaxDuration.Seconds()))
	}))
	defer func() { _ = ctrl.Close() }()

	// Printed before Start: from then on the tick hook owns w.
	fmt.Fprintf(w, "Recording from %s. Press Enter to stop (stops automatically after %s).\n", a.cfg.CaptureDevice, clip.MaxDuration)
	if err := ctrl.Start(ctx); err != nil {
		return clip.Clip{}, err
	}

	type result struct {
		clip clip.Clip
		err  error
	}
	enter := make(chan struct{}, 1)
	go func() {
		// EOF means nobody is there to press Enter; let the timer run.
		if _, err := bufio.NewReader(a.cli.stdin).ReadString('\n'); err == nil {
			enter <- struct{}{}
		}
	}()
	done := make(chan result, 1)
	go func() {
		cl, err := ctrl.Wait(ctx)
		done <- result{cl, err}
	}()

	var res result
	select {
	case <-enter:
		cl, err := ctrl.Stop(ctx)
		if errors.Is(err, recorder.ErrInvalidTransition) {
			// Expired while the key was pressed.
			res = <-done
		} else {
			res = result{cl, err}
		}
	case res = <-done:
	}
	fmt.Fprintln(w)
	if res.err != nil {
		return clip.Clip{}, res.err
	}
	fmt.Fprintf(w, "Recorded %s (%s)\n", res.clip.Duration.Round(100*time.Millisecond), humanize.IBytes(uint64(res.clip.Size())))
	return res.clip, nil
}

func (a *app) offerAndAnalyse(ctx context.Context, candidate clip.Clip, validateOnly bool, exportPath string, asJSON bool) error {
	accepted, err := a.flow.Offer(ctx, candidate)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.cli.stderr, "Clip accepted: %s, %s, %s\n",
		clip.BaseMimeType(accepted.MimeType), accepted.Duration.Round(100*time.Millisecond), humanize.IBytes(uint64(accepted.Size())))
	if validateOnly {
		return nil
	}

	rec, err := a.flow.Analyse(ctx, a.progress)
	if err != nil {
		return err
	}
	return a.present(rec, exportPath, asJSON)
}

func runReport(ctx context.Context, c *cli, args []string) error {
	fs, configPath := newFlagSet(c, "report")
	exportPath := fs.String("export", "", "also write the report as JSON to this file")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(c.stderr, "Usage: srtcheck report [flags] <report id>")
		return errUsage
	}

	return withApp(ctx, c, *configPath, func(ctx context.Context, a *app) error {
		rec, err := a.view.Open(ctx, fs.Arg(0), a.progress)
		if err != nil {
			return err
		}
		return a.present(rec, *exportPath, *asJSON)
	})
}

func runHistory(ctx context.Context, c *cli, args []string) error {
	fs, configPath := newFlagSet(c, "history")
	limit := fs.Int("limit", 20, "maximum number of reports to list")
	verify := fs.Bool("verify", false, "run an integrity check on the archive")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	return withApp(ctx, c, *configPath, func(ctx context.Context, a *app) error {
		if a.archive == nil {
			return errors.New("no report archive configured (set SRT_ARCHIVE_PATH or archivePath)")
		}
		if *verify {
			issues, err := a.archive.Verify()
			if err != nil {
				return err
			}
			if len(issues) > 0 {
				return fmt.Errorf("archive integrity check failed: %v", issues)
			}
			fmt.Fprintln(c.stderr, "Archive integrity: ok")
		}

		entries, err := a.archive.List(ctx, *limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(c.stdout, "No archived reports.")
			return nil
		}
		return writeHistory(c.stdout, entries)
	})
}

func writeHistory(w io.Writer, entries []report.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REPORT\tANALYSED\tSCORE\tRISK")
	for _, e := range entries {
		score, risk := "N/A", "N/A"
		if s, err := e.Data.Scores(); err == nil && s.TotalScore != nil {
			score = fmt.Sprintf("%.1f", *s.TotalScore)
			risk = string(s.Risk())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ReportID, humanize.Time(e.UpdatedAt), score, risk)
	}
	return tw.Flush()
}

func runCheck(_ context.Context, c *cli, args []string) error {
	fs, configPath := newFlagSet(c, "check")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	checks, err := validation.PerformStartupChecks(cfg)
	for _, ch := range checks {
		if ch.Err != nil {
			fmt.Fprintf(c.stdout, "FAIL  %-13s %v\n", ch.Name, ch.Err)
			continue
		}
		fmt.Fprintf(c.stdout, "ok    %s\n", ch.Name)
	}
	return err
}

func runConfig(_ context.Context, c *cli, args []string) error {
	fs, configPath := newFlagSet(c, "config")
	format := fs.String("format", "yaml", "output format: yaml or json")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	switch *format {
	case "json":
		return writeJSON(c.stdout, cfg)
	case "yaml":
		enc := yaml.NewEncoder(c.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	default:
		fmt.Fprintf(c.stderr, "unsupported format %q\n", *format)
		return errUsage
	}
}
