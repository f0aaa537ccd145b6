package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"panellicense/logger"
	"panellicense/models"
	"panellicense/utils"
)

// MaxKeyAttempts bounds key regeneration on collision.
const MaxKeyAttempts = 5

// Operation names reported to the observer.
const (
	OpGenerate  = "generate"
	OpActivate  = "activate"
	OpValidate  = "validate"
	OpSuspend   = "suspend"
	OpReinstate = "reinstate"
)

// Observer receives the outcome of each authority operation: "success" or an error code.
type Observer func(operation, result string)

// GenerateParams input of Generate.
type GenerateParams struct {
	Tier   string
	Domain string
	UserID *string
	// GracePeriod overrides the configured grace period when non-nil. Zero disables grace.
	GracePeriod *time.Duration
}

// BindingParams input of Activate and Validate. HardwareID wins over DeviceInfo when both are set.
type BindingParams struct {
	LicenseKey string
	Domain     string
	HardwareID string
	DeviceInfo *models.DeviceInfo
}

// LicenseAuthority generates, activates and validates licenses on top of a LicenseStore.
type LicenseAuthority struct {
	store       LicenseStore
	activity    ActivityLog
	now         func() time.Time
	newKey      func() (string, error)
	gracePeriod time.Duration
	observe     Observer
}

// Option customizes a LicenseAuthority.
type Option func(*LicenseAuthority)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(a *LicenseAuthority) { a.now = now }
}

// WithKeyGenerator replaces the random key source.
func WithKeyGenerator(gen func() (string, error)) Option {
	return func(a *LicenseAuthority) { a.newKey = gen }
}

// WithGracePeriod sets how long past expiry a license keeps validating.
func WithGracePeriod(d time.Duration) Option {
	return func(a *LicenseAuthority) { a.gracePeriod = d }
}

// WithActivityLog records lifecycle events.
func WithActivityLog(log ActivityLog) Option {
	return func(a *LicenseAuthority) { a.activity = log }
}

// WithObserver reports operation outcomes, typically to metrics.
func WithObserver(o Observer) Option {
	return func(a *LicenseAuthority) { a.observe = o }
}

// NewLicenseAuthority creates an authority backed by store.
func NewLicenseAuthority(store LicenseStore, opts ...Option) *LicenseAuthority {
	a := &LicenseAuthority{
		store:    store,
		activity: NopActivityLog(),
		now:      utils.NowUTC,
		newKey:   utils.GenerateLicenseKey,
		observe:  func(string, string) {},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Generate mints a new, not yet activated license for tier. The domain is stored as the intended
// domain and constrains a later activation.
func (a *LicenseAuthority) Generate(ctx context.Context, p GenerateParams) (lic *models.License, err error) {
	defer func() { a.report(OpGenerate, err) }()

	tier, policy, err := PolicyFor(strings.ToLower(strings.TrimSpace(p.Tier)))
	if err != nil {
		return nil, err
	}
	domain := utils.NormalizeDomain(p.Domain)
	if domain == "" {
		return nil, newError(KindInvalidRequest, "domain", "domain is required")
	}

	grace := a.gracePeriod
	if p.GracePeriod != nil {
		grace = *p.GracePeriod
	}
	if grace < 0 {
		return nil, newError(KindInvalidRequest, "grace_period_days", "grace period must not be negative")
	}

	var userID *string
	if p.UserID != nil {
		if u := strings.TrimSpace(*p.UserID); u != "" {
			userID = &u
		}
	}

	now := a.now().UTC()
	expiresAt := policy.ExpiresAt(now)
	var graceEnd *time.Time
	if grace > 0 {
		end := expiresAt.Add(grace)
		graceEnd = &end
	}

	for attempt := 1; attempt <= MaxKeyAttempts; attempt++ {
		key, err := a.newKey()
		if err != nil {
			return nil, &LicenseError{Kind: KindKeyGenerationExhausted, Message: "random source failed", Err: err}
		}

		if _, err := a.store.FindByKey(ctx, key); err == nil {
			a.logCollision(key, attempt)
			continue
		} else if !IsKind(err, KindLicenseNotFound) {
			return nil, asStorageError("lookup license key", err)
		}

		lic := &models.License{
			ID:             utils.GenerateID("lic"),
			LicenseKey:     key,
			UserID:         userID,
			Tier:           tier,
			Domain:         &domain,
			MaxServers:     policy.Entitlements.MaxServers,
			MaxDomains:     policy.Entitlements.MaxDomains,
			MaxStorageGB:   policy.Entitlements.MaxStorageGB,
			Status:         models.LicenseStatusActive,
			ExpiresAt:      &expiresAt,
			GracePeriodEnd: graceEnd,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if err := a.store.Create(ctx, lic); err != nil {
			if IsKind(err, KindDuplicateKey) {
				a.logCollision(key, attempt)
				continue
			}
			return nil, asStorageError("create license", err)
		}

		a.record(ctx, lic.ID, models.LicenseActionGenerated,
			fmt.Sprintf("tier=%s domain=%s expires_at=%s", tier, domain, utils.FormatTimestamp(expiresAt)))
		return lic, nil
	}

	return nil, &LicenseError{
		Kind:    KindKeyGenerationExhausted,
		Message: fmt.Sprintf("no unique license key after %d attempts", MaxKeyAttempts),
	}
}

// Activate binds the license to a domain and hardware fingerprint. It succeeds at most once per key.
func (a *LicenseAuthority) Activate(ctx context.Context, p BindingParams) (lic *models.License, err error) {
	defer func() { a.report(OpActivate, err) }()

	key, domain, hardwareID, err := normalizeBinding(p)
	if err != nil {
		return nil, err
	}

	current, err := a.store.FindByKey(ctx, key)
	if err != nil {
		return nil, asStorageError("find license", err)
	}
	if current.IsActivated() {
		return nil, &LicenseError{Kind: KindAlreadyActivated}
	}
	if current.Status == models.LicenseStatusSuspended {
		return nil, &LicenseError{Kind: KindSuspended}
	}

	now := a.now().UTC()
	if current.EffectiveStatus(now) == models.LicenseStatusExpired {
		return nil, &LicenseError{Kind: KindExpired}
	}
	if current.Domain != nil && domain != "" && *current.Domain != domain {
		return nil, &LicenseError{Kind: KindDomainMismatch, Field: "domain"}
	}

	lic, err = a.store.ConditionalActivate(ctx, key, domain, hardwareID, now)
	if err != nil {
		return nil, asStorageError("activate license", err)
	}

	a.record(ctx, lic.ID, models.LicenseActionActivated,
		fmt.Sprintf("domain=%s hardware_bound=%t", deref(lic.Domain), lic.HardwareID != nil))
	return lic, nil
}

// Validate reports whether the license is usable right now and under which limits. It never writes.
func (a *LicenseAuthority) Validate(ctx context.Context, p BindingParams) (res *models.ValidationResult, err error) {
	defer func() { a.report(OpValidate, err) }()

	key, domain, hardwareID, err := normalizeBinding(p)
	if err != nil {
		return nil, err
	}

	lic, err := a.store.FindByKey(ctx, key)
	if err != nil {
		return nil, asStorageError("find license", err)
	}

	if lic.Status == models.LicenseStatusSuspended {
		return nil, &LicenseError{Kind: KindSuspended}
	}

	now := a.now().UTC()
	graceActive := false
	if lic.IsExpired(now) {
		if !lic.InGracePeriod(now) {
			return nil, &LicenseError{Kind: KindExpired}
		}
		graceActive = true
	}

	if lic.Domain != nil && domain != "" && *lic.Domain != domain {
		return nil, &LicenseError{Kind: KindDomainMismatch, Field: "domain"}
	}
	if lic.HardwareID != nil && hardwareID != "" && *lic.HardwareID != hardwareID {
		return nil, &LicenseError{Kind: KindHardwareMismatch, Field: "hardware_id"}
	}

	res = &models.ValidationResult{
		Valid:        true,
		Tier:         lic.Tier,
		Entitlements: lic.Entitlements(),
		ExpiresAt:    lic.ExpiresAt,
		Status:       models.LicenseStatusActive,
		GraceActive:  graceActive,
		Activated:    lic.IsActivated(),
	}
	if graceActive {
		res.GracePeriodEnd = lic.GracePeriodEnd
	}
	return res, nil
}

// Suspend blocks validation of the license until it is reinstated.
func (a *LicenseAuthority) Suspend(ctx context.Context, licenseKey string) (lic *models.License, err error) {
	defer func() { a.report(OpSuspend, err) }()
	return a.setStatus(ctx, licenseKey, models.LicenseStatusSuspended, models.LicenseActionSuspended)
}

// Reinstate returns a suspended license to active.
func (a *LicenseAuthority) Reinstate(ctx context.Context, licenseKey string) (lic *models.License, err error) {
	defer func() { a.report(OpReinstate, err) }()
	return a.setStatus(ctx, licenseKey, models.LicenseStatusActive, models.LicenseActionReinstated)
}

// UpdateStatus applies an administrative status by name. Only active and suspended are storable.
func (a *LicenseAuthority) UpdateStatus(ctx context.Context, licenseKey, status string) (*models.License, error) {
	switch models.LicenseStatus(strings.ToLower(strings.TrimSpace(status))) {
	case models.LicenseStatusSuspended:
		return a.Suspend(ctx, licenseKey)
	case models.LicenseStatusActive:
		return a.Reinstate(ctx, licenseKey)
	default:
		return nil, newError(KindInvalidStatus, "status", fmt.Sprintf("status %q cannot be set", status))
	}
}

func (a *LicenseAuthority) setStatus(ctx context.Context, licenseKey string, status models.LicenseStatus, action string) (*models.License, error) {
	key := utils.NormalizeLicenseKey(licenseKey)
	if key == "" {
		return nil, newError(KindInvalidRequest, "license_key", "license key is required")
	}

	lic, err := a.store.UpdateStatus(ctx, key, status, a.now().UTC())
	if err != nil {
		return nil, asStorageError("update license status", err)
	}
	a.record(ctx, lic.ID, action, "status="+string(status))
	return lic, nil
}

// Get returns the full record for administrators.
func (a *LicenseAuthority) Get(ctx context.Context, licenseKey string) (*models.License, error) {
	key := utils.NormalizeLicenseKey(licenseKey)
	if key == "" {
		return nil, newError(KindInvalidRequest, "license_key", "license key is required")
	}
	lic, err := a.store.FindByKey(ctx, key)
	if err != nil {
		return nil, asStorageError("find license", err)
	}
	return lic, nil
}

// ListByUser returns the licenses owned by userID, newest first.
func (a *LicenseAuthority) ListByUser(ctx context.Context, userID string) ([]*models.License, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, newError(KindInvalidRequest, "user_id", "user id is required")
	}
	licenses, err := a.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, asStorageError("list licenses", err)
	}
	return licenses, nil
}

// Activity returns the lifecycle events of the license, newest first.
func (a *LicenseAuthority) Activity(ctx context.Context, licenseKey string) ([]models.LicenseActivity, error) {
	lic, err := a.Get(ctx, licenseKey)
	if err != nil {
		return nil, err
	}
	entries, err := a.activity.ListByLicense(ctx, lic.ID)
	if err != nil {
		return nil, asStorageError("list license activity", err)
	}
	return entries, nil
}

func normalizeBinding(p BindingParams) (key, domain, hardwareID string, err error) {
	key = utils.NormalizeLicenseKey(p.LicenseKey)
	if key == "" {
		return "", "", "", newError(KindInvalidRequest, "license_key", "license key is required")
	}
	domain = utils.NormalizeDomain(p.Domain)
	hardwareID = utils.NormalizeHardwareID(p.HardwareID)
	if hardwareID == "" && !p.DeviceInfo.IsEmpty() {
		hardwareID = utils.GenerateDeviceFingerprint(*p.DeviceInfo)
	}
	return key, domain, hardwareID, nil
}

// asStorageError passes classified errors through and wraps anything else as StorageError.
func asStorageError(op string, err error) error {
	var le *LicenseError
	if errors.As(err, &le) {
		return err
	}
	return storageError(op, err)
}

func (a *LicenseAuthority) record(ctx context.Context, licenseID, action, details string) {
	entry := models.LicenseActivity{
		LicenseID: licenseID,
		Action:    action,
		Actor:     ActorFromContext(ctx),
		Details:   details,
		CreatedAt: a.now().UTC(),
	}
	if err := a.activity.Record(ctx, entry); err != nil {
		logger.WithFields(map[string]interface{}{
			"license_id": licenseID,
			"action":     action,
			"error":      err.Error(),
		}).Warn("Failed to record license activity")
	}
}

func (a *LicenseAuthority) logCollision(key string, attempt int) {
	logger.WithFields(map[string]interface{}{
		"attempt": attempt,
		"prefix":  key[:min(len(key), 6)],
	}).Warn("License key collision, regenerating")
}

// RecordRejection reports a request turned away before reaching op, such as an undecodable body.
func (a *LicenseAuthority) RecordRejection(op string, err error) {
	a.report(op, err)
}

func (a *LicenseAuthority) report(op string, err error) {
	if err == nil {
		a.observe(op, "success")
		return
	}
	a.observe(op, KindOf(err).Code())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type actorKey struct{}

// ContextWithActor tags ctx with who is performing an operation, for the activity log.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor set by ContextWithActor, or "system".
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return "system"
}
