package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logMaxSizeMB  = 50
	logMaxBackups = 7
	logMaxAgeDays = 7
)

// setupFileLogger sends logs to stderr and to a rotating file at path. The
// file is rotated at local midnight and when it grows past logMaxSizeMB.
// The returned function stops the rotation and closes the file.
func setupFileLogger(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}

	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return nil, err
	}

	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
		LocalTime:  true,
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, lj))
	logrus.WithField("file", path).Info("logging to file")

	ctx, cancel := context.WithCancel(context.Background())
	go rotateDaily(ctx, lj, time.Now)

	return func() {
		cancel()
		logrus.SetOutput(os.Stderr)
		_ = lj.Close()
	}, nil
}

func rotateDaily(ctx context.Context, lj *lumberjack.Logger, now func() time.Time) {
	for {
		timer := time.NewTimer(untilMidnight(now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := lj.Rotate(); err != nil {
				logrus.WithError(err).Error("failed to rotate log file")
			}
		}
	}
}

func untilMidnight(t time.Time) time.Duration {
	y, m, d := t.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
	return next.Sub(t)
}
