// flightplot renders a session of the sqlite flight log as PNG charts:
// attitude, altitude and motor commands against time.
package main

import (
	"flag"
	"fmt"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/b3nn0/hoverfly/telemetry"
)

type series struct {
	name  string
	value func(r telemetry.FlightRow) float64
}

func xys(rows []telemetry.FlightRow, value func(telemetry.FlightRow) float64) plotter.XYs {
	pts := make(plotter.XYs, len(rows))
	if len(rows) == 0 {
		return pts
	}
	t0 := rows[0].TimeNanos
	for i, r := range rows {
		pts[i].X = float64(r.TimeNanos-t0) / 1e9
		pts[i].Y = value(r)
	}
	return pts
}

func chart(rows []telemetry.FlightRow, title, yLabel, file string, lines ...series) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = yLabel

	args := make([]interface{}, 0, 2*len(lines))
	for _, l := range lines {
		args = append(args, l.name, xys(rows, l.value))
	}
	if err := plotutil.AddLinePoints(p, args...); err != nil {
		return err
	}
	return p.Save(10*vg.Inch, 5*vg.Inch, file)
}

func main() {
	db := flag.String("db", "/var/log/hoverfly-flight.db", "Flight log database")
	session := flag.Int64("session", 0, "Session to plot, 0 for the most recent")
	out := flag.String("out", "flight", "Output file prefix")
	flag.Parse()

	rows, err := telemetry.ReadFlightLog(*db, *session)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(1)
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stderr, "no rows in session\n")
		os.Exit(1)
	}

	charts := []struct {
		title, yLabel, suffix string
		lines                 []series
	}{
		{"Attitude", "Degrees", "attitude", []series{
			{"Roll", func(r telemetry.FlightRow) float64 { return r.Phi }},
			{"Pitch", func(r telemetry.FlightRow) float64 { return r.Theta }},
			{"Yaw", func(r telemetry.FlightRow) float64 { return r.Psi }},
		}},
		{"Altitude", "m, m/s", "altitude", []series{
			{"Z", func(r telemetry.FlightRow) float64 { return r.Z }},
			{"DZ", func(r telemetry.FlightRow) float64 { return r.DZ }},
			{"Thrust", func(r telemetry.FlightRow) float64 { return r.Thrust }},
		}},
		{"Motors", "Command", "motors", []series{
			{"M1", func(r telemetry.FlightRow) float64 { return r.M1 }},
			{"M2", func(r telemetry.FlightRow) float64 { return r.M2 }},
			{"M3", func(r telemetry.FlightRow) float64 { return r.M3 }},
			{"M4", func(r telemetry.FlightRow) float64 { return r.M4 }},
		}},
	}
	for _, c := range charts {
		file := fmt.Sprintf("%s_%s.png", *out, c.suffix)
		if err := chart(rows, c.title, c.yLabel, file, c.lines...); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", file, err.Error())
			os.Exit(1)
		}
		fmt.Printf("wrote %s (%d points)\n", file, len(rows))
	}
}
