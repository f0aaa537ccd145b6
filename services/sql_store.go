package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"panellicense/models"
	"panellicense/utils"
)

const licenseColumns = `id, license_key, user_id, tier, domain, hardware_id, max_servers, max_domains,
	max_storage_gb, status, activated_at, expires_at, grace_period_end, created_at, updated_at`

// SQLLicenseStore stores licenses in the licenses table.
type SQLLicenseStore struct {
	db SQLExecutor
}

// NewSQLLicenseStore creates a store on db. Tables are created by database.CreateTables.
func NewSQLLicenseStore(db SQLExecutor) *SQLLicenseStore {
	return &SQLLicenseStore{db: db}
}

func (s *SQLLicenseStore) Create(ctx context.Context, l *models.License) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO licenses (`+licenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.LicenseKey, nullString(l.UserID), string(l.Tier), nullString(l.Domain), nullString(l.HardwareID),
		limitValue(l.MaxServers), limitValue(l.MaxDomains), limitValue(l.MaxStorageGB),
		string(l.Status), nullTime(l.ActivatedAt), nullTime(l.ExpiresAt), nullTime(l.GracePeriodEnd),
		utils.FormatTimestamp(l.CreatedAt), utils.FormatTimestamp(l.UpdatedAt),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return &LicenseError{Kind: KindDuplicateKey, Field: "license_key", Err: err}
		}
		return storageError("insert license", err)
	}
	return nil
}

func (s *SQLLicenseStore) FindByKey(ctx context.Context, licenseKey string) (*models.License, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+licenseColumns+` FROM licenses WHERE license_key = ?`, licenseKey)
	l, err := scanLicense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &LicenseError{Kind: KindLicenseNotFound}
	}
	if err != nil {
		return nil, storageError("select license", err)
	}
	return l, nil
}

// ConditionalActivate issues one UPDATE guarded by activated_at IS NULL. A zero row count is then
// resolved into LicenseNotFound or AlreadyActivated.
func (s *SQLLicenseStore) ConditionalActivate(ctx context.Context, licenseKey, domain, hardwareID string, now time.Time) (*models.License, error) {
	ts := utils.FormatTimestamp(now)
	result, err := s.db.ExecContext(ctx, `
		UPDATE licenses
		SET domain = COALESCE(NULLIF(?, ''), domain),
			hardware_id = NULLIF(?, ''),
			activated_at = ?,
			status = ?,
			updated_at = ?
		WHERE license_key = ? AND activated_at IS NULL`,
		domain, hardwareID, ts, string(models.LicenseStatusActive), ts, licenseKey,
	)
	if err != nil {
		return nil, storageError("activate license", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, storageError("activate license", err)
	}

	l, err := s.FindByKey(ctx, licenseKey)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, &LicenseError{Kind: KindAlreadyActivated}
	}
	return l, nil
}

func (s *SQLLicenseStore) UpdateStatus(ctx context.Context, licenseKey string, status models.LicenseStatus, now time.Time) (*models.License, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE licenses SET status = ?, updated_at = ? WHERE license_key = ?`,
		string(status), utils.FormatTimestamp(now), licenseKey,
	)
	if err != nil {
		return nil, storageError("update license status", err)
	}
	// mysql reports zero affected rows when the value is unchanged, so existence is checked by reading back.
	if _, err := result.RowsAffected(); err != nil {
		return nil, storageError("update license status", err)
	}
	return s.FindByKey(ctx, licenseKey)
}

func (s *SQLLicenseStore) ListByUser(ctx context.Context, userID string) ([]*models.License, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+licenseColumns+` FROM licenses WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, storageError("list licenses", err)
	}
	defer rows.Close()

	licenses := make([]*models.License, 0)
	for rows.Next() {
		l, err := scanLicense(rows)
		if err != nil {
			return nil, storageError("scan license", err)
		}
		licenses = append(licenses, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list licenses", err)
	}
	return licenses, nil
}

// CountByState scans the lifecycle columns and derives each state in Go, since expiry is never stored.
func (s *SQLLicenseStore) CountByState(ctx context.Context, now time.Time) (models.LicenseStateCounts, error) {
	var counts models.LicenseStateCounts

	rows, err := s.db.QueryContext(ctx, `SELECT status, activated_at, expires_at, grace_period_end FROM licenses`)
	if err != nil {
		return counts, storageError("count licenses", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status                        string
			activatedAt, expiresAt, grace sql.NullString
			l                             models.License
		)
		if err := rows.Scan(&status, &activatedAt, &expiresAt, &grace); err != nil {
			return counts, storageError("scan license", err)
		}
		l.Status = models.LicenseStatus(status)
		if l.ActivatedAt, err = parseNullTime(activatedAt); err != nil {
			return counts, storageError("scan license", err)
		}
		if l.ExpiresAt, err = parseNullTime(expiresAt); err != nil {
			return counts, storageError("scan license", err)
		}
		if l.GracePeriodEnd, err = parseNullTime(grace); err != nil {
			return counts, storageError("scan license", err)
		}
		counts.Add(&l, now)
	}
	if err := rows.Err(); err != nil {
		return counts, storageError("count licenses", err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLicense(row rowScanner) (*models.License, error) {
	var (
		l                                  models.License
		tier, status                       string
		userID, domain, hardwareID         sql.NullString
		maxServers, maxDomains, maxStorage sql.NullInt64
		activatedAt, expiresAt, grace      sql.NullString
		createdAt, updatedAt               string
	)
	if err := row.Scan(&l.ID, &l.LicenseKey, &userID, &tier, &domain, &hardwareID,
		&maxServers, &maxDomains, &maxStorage, &status,
		&activatedAt, &expiresAt, &grace, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	l.Tier = models.Tier(tier)
	l.Status = models.LicenseStatus(status)
	l.UserID = stringPtr(userID)
	l.Domain = stringPtr(domain)
	l.HardwareID = stringPtr(hardwareID)
	l.MaxServers = limitFrom(maxServers)
	l.MaxDomains = limitFrom(maxDomains)
	l.MaxStorageGB = limitFrom(maxStorage)

	var err error
	if l.ActivatedAt, err = parseNullTime(activatedAt); err != nil {
		return nil, err
	}
	if l.ExpiresAt, err = parseNullTime(expiresAt); err != nil {
		return nil, err
	}
	if l.GracePeriodEnd, err = parseNullTime(grace); err != nil {
		return nil, err
	}
	if l.CreatedAt, err = utils.ParseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = utils.ParseTimestamp(updatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// limitValue stores unlimited as NULL.
func limitValue(l models.Limit) any {
	if l.Unlimited {
		return nil
	}
	return int64(l.Value)
}

func limitFrom(v sql.NullInt64) models.Limit {
	if !v.Valid {
		return models.UnlimitedLimit()
	}
	return models.Limited(int(v.Int64))
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return utils.FormatTimestamp(*t)
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := utils.ParseTimestamp(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SQLActivityLog writes to license_activity_logs.
type SQLActivityLog struct {
	db SQLExecutor
}

func NewSQLActivityLog(db SQLExecutor) *SQLActivityLog {
	return &SQLActivityLog{db: db}
}

func (a *SQLActivityLog) Record(ctx context.Context, activity models.LicenseActivity) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO license_activity_logs (license_id, action, actor, details, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		activity.LicenseID, activity.Action, activity.Actor, activity.Details, utils.FormatTimestamp(activity.CreatedAt),
	)
	if err != nil {
		return storageError("insert license activity", err)
	}
	return nil
}

func (a *SQLActivityLog) ListByLicense(ctx context.Context, licenseID string) ([]models.LicenseActivity, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, license_id, action, actor, details, created_at
		FROM license_activity_logs
		WHERE license_id = ?
		ORDER BY id DESC`, licenseID)
	if err != nil {
		return nil, storageError("list license activity", err)
	}
	defer rows.Close()

	out := make([]models.LicenseActivity, 0)
	for rows.Next() {
		var (
			entry     models.LicenseActivity
			details   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &entry.LicenseID, &entry.Action, &entry.Actor, &details, &createdAt); err != nil {
			return nil, storageError("scan license activity", err)
		}
		entry.Details = details.String
		if entry.CreatedAt, err = utils.ParseTimestamp(createdAt); err != nil {
			return nil, storageError("scan license activity", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list license activity", err)
	}
	return out, nil
}
