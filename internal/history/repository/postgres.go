package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	devicedomain "devicetrail/internal/device/domain"
	"devicetrail/internal/history/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a history read repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListDeviceAccess returns devices matching the scope (either side) and filter,
// with their qualifying access rows grouped per entity in append order.
func (r *PostgresRepository) ListDeviceAccess(ctx context.Context, scope domain.VisibilityScope, filter domain.ListFilter) ([]DeviceAccess, error) {
	if scope.IsEmpty() {
		return nil, nil
	}

	q, args := buildDeviceMatchQuery(scope, filter)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []devicedomain.Device
	for rows.Next() {
		var d devicedomain.Device
		if err := rows.Scan(&d.ID, &d.DeviceID, &d.MACAddr, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, nil
	}

	deviceIDs := make([]string, len(devices))
	byID := make(map[string]*DeviceAccess, len(devices))
	out := make([]DeviceAccess, len(devices))
	for i, d := range devices {
		deviceIDs[i] = d.ID
		out[i] = DeviceAccess{Device: d}
		byID[d.ID] = &out[i]
	}

	domainAccess, err := r.accessRows(ctx, "device_domain_access", "domain_id", deviceIDs, scope.DomainIDs)
	if err != nil {
		return nil, err
	}
	for id, acc := range domainAccess {
		byID[id].Domains = acc
	}

	userAccess, err := r.accessRows(ctx, "device_user_access", "user_id", deviceIDs, scope.UserIDs)
	if err != nil {
		return nil, err
	}
	for id, acc := range userAccess {
		byID[id].Users = acc
	}

	ipLog, err := r.ipLogRows(ctx, deviceIDs)
	if err != nil {
		return nil, err
	}
	for id, log := range ipLog {
		byID[id].IPLog = log
	}

	return out, nil
}

// GetDeviceSide returns the device and the scope-qualified entries of one side.
// A missing device yields (nil, nil). A device with no qualifying entries is
// returned with empty Access, matching the list view's outer-join semantics.
func (r *PostgresRepository) GetDeviceSide(ctx context.Context, deviceID string, side Side, entityIDs []string) (*DeviceSide, error) {
	const q = `SELECT id, device_id, mac_addr, created_at, updated_at FROM devices WHERE device_id = $1`
	var d devicedomain.Device
	err := r.db.QueryRowContext(ctx, q, deviceID).Scan(&d.ID, &d.DeviceID, &d.MACAddr, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	table, column := "device_domain_access", "domain_id"
	if side == SideUsers {
		table, column = "device_user_access", "user_id"
	}
	access, err := r.accessRows(ctx, table, column, []string{d.ID}, entityIDs)
	if err != nil {
		return nil, err
	}
	ipLog, err := r.ipLogRows(ctx, []string{d.ID})
	if err != nil {
		return nil, err
	}

	return &DeviceSide{Device: d, Access: access[d.ID], IPLog: ipLog[d.ID]}, nil
}

// accessRows loads qualifying observation rows for the devices and groups them
// per entity id, keeping entities in first-seen order and timestamps in append
// order. Empty entityIDs qualifies nothing.
func (r *PostgresRepository) accessRows(ctx context.Context, table, column string, deviceIDs, entityIDs []string) (map[string][]devicedomain.EntityAccess, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}
	q := fmt.Sprintf(
		"SELECT device_id, %s, seen_at FROM %s WHERE device_id IN (%s) AND %s IN (%s) ORDER BY id",
		column, table,
		placeholders(1, len(deviceIDs)),
		column,
		placeholders(1+len(deviceIDs), len(entityIDs)),
	)
	args := append(toAny(deviceIDs), toAny(entityIDs)...)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grouped := make(map[string][]devicedomain.EntityAccess)
	index := make(map[string]int) // deviceID+entityID to position in grouped slice
	for rows.Next() {
		var deviceID, entityID string
		var seenAt int64
		if err := rows.Scan(&deviceID, &entityID, &seenAt); err != nil {
			return nil, err
		}
		key := deviceID + "\x00" + entityID
		if i, ok := index[key]; ok {
			grouped[deviceID][i].Timestamps = append(grouped[deviceID][i].Timestamps, seenAt)
			continue
		}
		index[key] = len(grouped[deviceID])
		grouped[deviceID] = append(grouped[deviceID], devicedomain.EntityAccess{EntityID: entityID, Timestamps: []int64{seenAt}})
	}
	return grouped, rows.Err()
}

func (r *PostgresRepository) ipLogRows(ctx context.Context, deviceIDs []string) (map[string][]devicedomain.IPObservation, error) {
	q := fmt.Sprintf(
		"SELECT device_id, ip, seen_at FROM device_ip_log WHERE device_id IN (%s) ORDER BY id",
		placeholders(1, len(deviceIDs)),
	)
	rows, err := r.db.QueryContext(ctx, q, toAny(deviceIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grouped := make(map[string][]devicedomain.IPObservation)
	for rows.Next() {
		var deviceID string
		var obs devicedomain.IPObservation
		if err := rows.Scan(&deviceID, &obs.IP, &obs.SeenAt); err != nil {
			return nil, err
		}
		grouped[deviceID] = append(grouped[deviceID], obs)
	}
	return grouped, rows.Err()
}

// buildDeviceMatchQuery assembles the device match: qualifying entries on
// either side (OR), narrowed by the structured filter (AND).
func buildDeviceMatchQuery(scope domain.VisibilityScope, filter domain.ListFilter) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT d.id, d.device_id, d.mac_addr, d.created_at, d.updated_at FROM devices d WHERE (")

	var args []any
	var sides []string
	if len(scope.DomainIDs) > 0 {
		sides = append(sides, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM device_domain_access a WHERE a.device_id = d.id AND a.domain_id IN (%s))",
			placeholders(len(args)+1, len(scope.DomainIDs)),
		))
		args = append(args, toAny(scope.DomainIDs)...)
	}
	if len(scope.UserIDs) > 0 {
		sides = append(sides, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM device_user_access u WHERE u.device_id = d.id AND u.user_id IN (%s))",
			placeholders(len(args)+1, len(scope.UserIDs)),
		))
		args = append(args, toAny(scope.UserIDs)...)
	}
	sb.WriteString(strings.Join(sides, " OR "))
	sb.WriteString(")")

	if filter.DeviceID != "" {
		args = append(args, filter.DeviceID)
		fmt.Fprintf(&sb, " AND d.device_id = $%d", len(args))
	}
	if filter.MACAddr != "" {
		args = append(args, "%"+filter.MACAddr+"%")
		fmt.Fprintf(&sb, " AND d.mac_addr ILIKE $%d", len(args))
	}
	sb.WriteString(" ORDER BY d.updated_at DESC")

	return sb.String(), args
}

func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
