/*
	Copyright (c) 2024 Adrian Batzill
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	simulate.go: Fly the dynamics model in place of the hardware. Sticks are
	set over HTTP or by the takeoff script.
*/

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/b3nn0/hoverfly/mixer"
	"github.com/b3nn0/hoverfly/sim"
	"github.com/b3nn0/hoverfly/vehicle"
)

const simSubsteps = 10

var simPlant *sim.Plant
var simSticks *sim.Sticks

func initSimulation(s settings) *vehicleIO {
	simPlant = sim.NewPlant(vehicle.DIYQuad, mixer.QuadX{}, s.loopPeriod(), simSubsteps)
	simSticks = sim.NewSticks()
	return &vehicleIO{
		imu:      simPlant,
		rng:      simPlant,
		receiver: simSticks,
		esc:      simPlant,
		est:      simPlant,
	}
}

// takeoffScript arms the simulated vehicle and brings the throttle up.
func takeoffScript(ctx context.Context, sticks *sim.Sticks, hover uint16) {
	steps := []struct {
		after   time.Duration
		channel int
		us      uint16
	}{
		{2 * time.Second, sim.ChArm, 2000},
		{time.Second, sim.ChThrottle, hover},
	}
	for _, st := range steps {
		select {
		case <-ctx.Done():
			return
		case <-time.After(st.after):
		}
		logDbg("sim: channel %d -> %d\n", st.channel, st.us)
		sticks.Set(st.channel, st.us)
	}
}

// AJAX call - /sim/sticks?ch=0&us=1500. Sets one stick channel and responds
// with the current frame. Without parameters it only reports.
func handleSimSticks(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if simSticks == nil {
		http.Error(w, "not simulating", http.StatusNotFound)
		return
	}
	q := r.URL.Query()
	if q.Has("ch") {
		ch, err1 := strconv.Atoi(q.Get("ch"))
		us, err2 := strconv.ParseUint(q.Get("us"), 10, 16)
		if err1 != nil || err2 != nil {
			http.Error(w, "bad channel or pulse width", http.StatusBadRequest)
			return
		}
		simSticks.Set(ch, uint16(us))
	}
	if q.Has("failsafe") {
		simSticks.SetFailsafe(q.Get("failsafe") == "1")
	}
	frameJSON, _ := json.Marshal(simSticks.Read())
	w.Write(frameJSON)
}

// AJAX call - /sim/truth. Responds with the model state, for comparison with
// the estimate on /status.
func handleSimTruth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if simPlant == nil {
		http.Error(w, "not simulating", http.StatusNotFound)
		return
	}
	truthJSON, _ := json.Marshal(simPlant.Truth())
	w.Write(truthJSON)
}
