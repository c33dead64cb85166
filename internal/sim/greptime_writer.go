package sim

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"raydar-sim/internal/telemetry"
)

const (
	defaultGreptimePort   = 4001
	defaultDetectionTable = "radar_detections"
	defaultStateTable     = "radar_scanner_state"
	greptimeWriteTimeout  = 5 * time.Second
)

// greptimeClient is the subset of the ingester client used by the writer.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes blips, detections and scanner state to GreptimeDB
// via the ingester client.
type GreptimeDBWriter struct {
	client         greptimeClient
	table          string
	detectionTable string
	stateTable     string
	log            *slog.Logger
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port"). Empty
// table names fall back to the defaults.
func NewGreptimeDBWriter(endpoint, database, blipTable, detTable, stateTable string) (*GreptimeDBWriter, error) {
	host, port, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptimedb client: %w", err)
	}
	if blipTable == "" {
		blipTable = telemetry.BlipTableName
	}
	if detTable == "" {
		detTable = defaultDetectionTable
	}
	if stateTable == "" {
		stateTable = defaultStateTable
	}
	return &GreptimeDBWriter{
		client:         client,
		table:          blipTable,
		detectionTable: detTable,
		stateTable:     stateTable,
		log:            slog.Default().With("component", "greptimedb"),
	}, nil
}

func splitEndpoint(endpoint string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		// No port given.
		return endpoint, defaultGreptimePort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid GreptimeDB port %q: %w", portStr, err)
	}
	return host, port, nil
}

func (w *GreptimeDBWriter) logger() *slog.Logger {
	if w.log == nil {
		return slog.Default()
	}
	return w.log
}

func (w *GreptimeDBWriter) write(name string, tbl *table.Table, n int) error {
	ctx, cancel := context.WithTimeout(context.Background(), greptimeWriteTimeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		w.logger().Error("write failed", "table", name, "err", err)
		return err
	}
	w.logger().Debug("wrote rows", "table", name, "rows", n)
	return nil
}

// Write inserts a single blip row.
func (w *GreptimeDBWriter) Write(row telemetry.BlipRow) error {
	return w.WriteBatch([]telemetry.BlipRow{row})
}

// WriteBatch inserts multiple blip rows.
func (w *GreptimeDBWriter) WriteBatch(rows []telemetry.BlipRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := newTable(w.table,
		[]string{"site_id", "target_id"},
		[]column{
			{"callsign", types.STRING},
			{"x", types.FLOAT64},
			{"y", types.FLOAT64},
			{"true_x", types.FLOAT64},
			{"true_y", types.FLOAT64},
			{"heading", types.FLOAT64},
			{"speed", types.FLOAT64},
			{"opacity", types.FLOAT64},
			{"state", types.STRING},
			{"detected", types.BOOLEAN},
		})
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(r.SiteID, r.TargetID, r.Callsign, r.X, r.Y, r.TrueX, r.TrueY,
			r.Heading, r.Speed, r.Opacity, r.State, r.Detected, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(w.table, tbl, len(rows))
}

// WriteDetection inserts a single detection row.
func (w *GreptimeDBWriter) WriteDetection(d telemetry.DetectionRow) error {
	return w.WriteDetections([]telemetry.DetectionRow{d})
}

// WriteDetections inserts multiple detection rows.
func (w *GreptimeDBWriter) WriteDetections(rows []telemetry.DetectionRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := newTable(w.detectionTable,
		[]string{"site_id", "target_id"},
		[]column{
			{"callsign", types.STRING},
			{"x", types.FLOAT64},
			{"y", types.FLOAT64},
			{"range", types.FLOAT64},
			{"bearing", types.FLOAT64},
			{"heading", types.FLOAT64},
			{"speed", types.FLOAT64},
			{"sim_time", types.FLOAT64},
		})
	if err != nil {
		return err
	}
	for _, d := range rows {
		if err := tbl.AddRow(d.SiteID, d.TargetID, d.Callsign, d.X, d.Y, d.Range, d.Bearing,
			d.Heading, d.Speed, d.SimTime, d.Timestamp); err != nil {
			return err
		}
	}
	return w.write(w.detectionTable, tbl, len(rows))
}

// WriteState inserts a scanner state row.
func (w *GreptimeDBWriter) WriteState(row telemetry.ScannerStateRow) error {
	return w.WriteStates([]telemetry.ScannerStateRow{row})
}

// WriteStates inserts multiple scanner state rows.
func (w *GreptimeDBWriter) WriteStates(rows []telemetry.ScannerStateRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := newTable(w.stateTable,
		[]string{"site_id"},
		[]column{
			{"angle_deg", types.FLOAT64},
			{"radius", types.FLOAT64},
			{"center_x", types.FLOAT64},
			{"center_y", types.FLOAT64},
			{"rpm", types.FLOAT64},
			{"targets", types.INT64},
			{"visible", types.INT64},
			{"detections", types.INT64},
			{"sim_time", types.FLOAT64},
		})
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(r.SiteID, r.AngleDeg, r.Radius, r.CenterX, r.CenterY, r.RPM,
			int64(r.Targets), int64(r.Visible), int64(r.Detections), r.SimTime, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(w.stateTable, tbl, len(rows))
}

type column struct {
	name string
	typ  types.ColumnType
}

// newTable declares tags, then fields, then the "ts" time index.
func newTable(name string, tags []string, fields []column) (*table.Table, error) {
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		if err := tbl.AddTagColumn(t, types.STRING); err != nil {
			return nil, err
		}
	}
	for _, f := range fields {
		if err := tbl.AddFieldColumn(f.name, f.typ); err != nil {
			return nil, err
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, err
	}
	return tbl, nil
}
