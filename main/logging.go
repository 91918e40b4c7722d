/*
	Copyright (c) 2023 Adrian Batzill
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	logging.go: Initialize go logging, watch log file size and rotate, delete old logs

*/

package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ricochet2200/go-disk-usage/du"
)

const (
	debugLogFile   = "hoverfly.log"
	maxLogSize     = 10 * 1024 * 1024 // rotate above 10mb
	minFreeDisk    = 50 * 1024 * 1024 // leave 50mb free
	maxRotatedLogs = 9
	logWatchPeriod = 30 * time.Second
)

var debugLogf string
var logFileHandle *os.File

func getLogFiles() []string {
	entries, err := os.ReadDir(logDir)
	logs := make([]string, 0)
	if err != nil {
		return logs
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), debugLogFile+".") {
			logs = append(logs, filepath.Join(logDir, e.Name()))
		}
	}
	sort.Slice(logs, func(i, j int) bool {
		return logNumber(logs[i]) < logNumber(logs[j])
	})
	return logs
}

func logNumber(path string) int {
	n, err := strconv.Atoi(path[strings.LastIndex(path, ".")+1:])
	if err != nil {
		return -1
	}
	return n
}

func rotateLogs() {
	logs := getLogFiles()

	// rename suffix, remove if > maxRotatedLogs
	for i := len(logs) - 1; i >= 0; i-- {
		logNum := logNumber(logs[i])
		if logNum < 0 {
			continue
		}
		if logNum >= maxRotatedLogs {
			os.Remove(logs[i])
		} else {
			os.Rename(logs[i], filepath.Join(logDir, debugLogFile+"."+strconv.Itoa(logNum+1)))
		}
	}

	// Now rename current log file and re-open
	os.Rename(debugLogf, debugLogf+".1")
	openLogFile()
}

func deleteOldestLog() int64 {
	logs := getLogFiles()
	if len(logs) == 0 {
		return 0
	}
	oldest := logs[len(logs)-1]
	stat, err := os.Stat(oldest)
	if err != nil {
		return 0
	}
	if err := os.Remove(oldest); err != nil {
		return 0
	}
	return stat.Size()
}

func logFileWatcher(ctx context.Context) {
	ticker := time.NewTicker(logWatchPeriod)
	defer ticker.Stop()
	for {
		logSize, err := os.Stat(debugLogf)
		if err == nil && logSize.Size() > maxLogSize {
			rotateLogs()
		}

		usage := du.NewDiskUsage(logDir)
		freeBytes := int64(usage.Free())
		for freeBytes < minFreeDisk {
			deleted := deleteOldestLog()
			if deleted == 0 {
				break
			}
			freeBytes += deleted
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func openLogFile() {
	oldFp := logFileHandle
	debugLogf = filepath.Join(logDir, debugLogFile)
	fp, err := os.OpenFile(debugLogf, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Failed to open '%s': %s\n", debugLogf, err.Error())
	} else {
		// Keep the logfile handle for later use
		logFileHandle = fp
		mfp := io.MultiWriter(fp, os.Stdout)
		log.SetOutput(mfp)

		// Make sure crash dumps are written to the log as well
		syscall.Dup3(int(fp.Fd()), 2, 0)
	}
	if oldFp != nil {
		oldFp.Close()
	}
}

func initLogging(ctx context.Context) {
	openLogFile()
	go logFileWatcher(ctx)
}

func logDbg(msg string, args ...any) {
	if globalSettings.DEBUG {
		log.Printf(msg, args...)
	}
}
