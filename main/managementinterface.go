/*
	Copyright (c) 2015-2016 Christopher Young
	Distributable under the terms of The "BSD New"" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	managementinterface.go: Status page, live telemetry websocket, metrics and logs.
*/

package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/b3nn0/hoverfly/telemetry"
	"github.com/b3nn0/hoverfly/vehicle"
)

type status struct {
	Version        string
	Uptime         int64
	UptimeHuman    string
	Simulated      bool
	Ticks          uint64
	Overruns       uint64
	Failsafes      uint64
	TelemetryUsers int
	FlightLogRows  uint64
	FlightLogDrops uint64
	CPUTemp        float64
	FanDuty        uint32
	Snapshot       vehicle.Snapshot
}

type statusSource struct {
	uptime    *monotonic
	stats     *loopStats
	snapshot  func() vehicle.Snapshot
	broadcast *telemetry.Broadcaster
	flightLog *telemetry.FlightLog
}

func (src *statusSource) status() status {
	st := status{
		Version:     hoverflyVersion,
		Uptime:      int64(src.uptime.Uptime().Seconds()),
		UptimeHuman: src.uptime.HumanizeUptime(),
		Simulated:   globalSettings.Simulate,
		Ticks:       src.stats.ticks.Load(),
		Overruns:    src.stats.overruns.Load(),
		Failsafes:   src.stats.failsafes.Load(),
		Snapshot:    src.snapshot(),
	}
	if src.broadcast != nil {
		st.TelemetryUsers = src.broadcast.Clients()
	}
	if src.flightLog != nil {
		st.FlightLogRows = src.flightLog.Written()
		st.FlightLogDrops = src.flightLog.Dropped()
	}
	if fan, ok := fanState.Load().(fanStatus); ok {
		st.CPUTemp = fan.TempCurrent
		st.FanDuty = fan.PWMDutyCurrent
	}
	return st
}

// AJAX call - /status. Responds with loop statistics and the last snapshot.
func (src *statusSource) handleStatusRequest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	statusJSON, _ := json.Marshal(src.status())
	w.Write(statusJSON)
}

// AJAX call - /getSettings. Responds with all hoverfly.conf data.
func handleSettingsGetRequest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	settingsJSON, _ := json.Marshal(&globalSettings)
	w.Write(settingsJSON)
}

func managementInterface(ctx context.Context, src *statusSource) {
	mux := http.NewServeMux()
	mux.Handle("/logs/", http.StripPrefix("/logs/", http.FileServer(http.Dir(logDir))))
	mux.HandleFunc("/status", src.handleStatusRequest)
	mux.HandleFunc("/getSettings", handleSettingsGetRequest)
	mux.Handle("/metrics", promhttp.Handler())
	if src.broadcast != nil {
		mux.Handle("/telemetry", src.broadcast.Handler())
	}
	if globalSettings.Simulate {
		mux.HandleFunc("/sim/sticks", handleSimSticks)
		mux.HandleFunc("/sim/truth", handleSimTruth)
	}

	srv := &http.Server{Addr: managementAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	err := srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Printf("managementInterface ListenAndServe: %s\n", err.Error())
	}
}
