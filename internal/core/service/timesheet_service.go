package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/atlasconseil/opsboard/internal/core/domain"
	"github.com/atlasconseil/opsboard/internal/core/ports"
)

// TimesheetService is the policy-checked CRA write and read path. Every
// operation takes the actor explicitly and consults the policy engine before
// touching storage.
type TimesheetService struct {
	repo     ports.TimesheetRepository
	scope    ports.ScopeResolver
	missions ports.ReferentialRepository
	users    ports.AuthRepository
	dedup    ports.BatchDedup
	locks    *keyLock
	dayHours int
	log      zerolog.Logger
}

func NewTimesheetService(
	repo ports.TimesheetRepository,
	missions ports.ReferentialRepository,
	users ports.AuthRepository,
	dedup ports.BatchDedup,
	dayHours int,
	log zerolog.Logger,
) *TimesheetService {
	if dayHours <= 0 {
		dayHours = 8
	}
	return &TimesheetService{
		repo:     repo,
		scope:    missions,
		missions: missions,
		users:    users,
		dedup:    dedup,
		locks:    newKeyLock(defaultStripes),
		dayHours: dayHours,
		log:      log,
	}
}

// LogTime records one CRA entry. The write serializes on the (user, date)
// key, so two sessions editing the same day cannot lose updates: the second
// writer re-reads committed hours under the lock before inserting.
func (s *TimesheetService) LogTime(ctx context.Context, actor domain.Actor, input ports.LogTimeInput) (*domain.TimeEntry, error) {
	if !domain.CanAccess(actor.Role, domain.ResourceCRAEntry, domain.ActionWrite) {
		return nil, domain.Denied(actor.Role, domain.ResourceCRAEntry, domain.ActionWrite)
	}

	targetUser := input.UserID
	if targetUser == 0 {
		targetUser = actor.UserID
	}
	// Only Admin may log time on behalf of another user.
	if targetUser != actor.UserID && actor.Role != domain.RoleAdmin {
		return nil, domain.DeniedScope(actor.Role, domain.ResourceCRAEntry, domain.ActionWrite, domain.ScopeOtherUser)
	}

	if err := validateEntry(input.EntryDate, input.Category, input.Hours); err != nil {
		return nil, err
	}
	if err := s.checkMissionScope(ctx, actor, input.MissionID); err != nil {
		return nil, err
	}

	key := dayKey(targetUser, input.EntryDate)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	if err := s.checkCapacity(ctx, targetUser, input.EntryDate, input.Hours); err != nil {
		return nil, err
	}

	entry := &domain.TimeEntry{
		EntryDate:   input.EntryDate,
		UserID:      targetUser,
		MissionID:   input.MissionID,
		Category:    input.Category,
		Hours:       input.Hours,
		Description: input.Description,
		CreatedAt:   time.Now().UTC(),
	}

	created, err := insertWithRetry(func() (*domain.TimeEntry, error) {
		return s.repo.InsertEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("user_id", targetUser).
		Str("entry_date", input.EntryDate).
		Str("category", string(input.Category)).
		Int("hours", input.Hours).
		Msg("time entry recorded")
	return created, nil
}

// DeleteEntry removes an entry. Non-admin actors may only delete their own.
func (s *TimesheetService) DeleteEntry(ctx context.Context, actor domain.Actor, entryID int64) error {
	if !domain.CanAccess(actor.Role, domain.ResourceCRAEntry, domain.ActionWrite) {
		return domain.Denied(actor.Role, domain.ResourceCRAEntry, domain.ActionWrite)
	}
	entry, err := s.repo.FindEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.UserID != actor.UserID && actor.Role != domain.RoleAdmin {
		return domain.DeniedScope(actor.Role, domain.ResourceCRAEntry, domain.ActionWrite, domain.ScopeOtherUser)
	}
	return s.repo.DeleteEntry(ctx, entryID)
}

// ImportBatch commits a CSV batch atomically: every row is validated and
// scope-checked first, then all rows are written in one transaction. A
// failure anywhere leaves zero rows committed. An idempotency key that has
// already been processed replays as a no-op.
func (s *TimesheetService) ImportBatch(ctx context.Context, actor domain.Actor, input ports.ImportInput) (*ports.ImportResult, error) {
	if !domain.CanAccess(actor.Role, domain.ResourceCRAEntry, domain.ActionImport) {
		return nil, domain.Denied(actor.Role, domain.ResourceCRAEntry, domain.ActionImport)
	}
	if len(input.Rows) == 0 {
		return nil, domain.Invalid("rows", "batch is empty")
	}

	if input.IdempotencyKey != "" {
		dup, err := s.dedup.IsDuplicate(ctx, input.IdempotencyKey)
		if err != nil {
			s.log.Warn().Err(err).Msg("import dedup check failed, processing anyway")
		} else if dup {
			s.log.Info().Str("idempotency_key", input.IdempotencyKey).Msg("idempotent import replay")
			return &ports.ImportResult{AlreadyProcessed: true}, nil
		}
	}

	entries, keys, addedHours, err := s.resolveBatch(ctx, actor, input.Rows)
	if err != nil {
		return nil, err
	}

	release := s.locks.LockAll(keys)
	defer release()

	// Capacity is checked per (user, day) against committed hours plus the
	// batch's own contribution to that day.
	for key, added := range addedHours {
		if err := s.checkCapacity(ctx, key.userID, key.date, added); err != nil {
			return nil, err
		}
	}

	// The key commits in the same transaction as the rows, so a crash after
	// the write cannot open a window where the batch replays as new.
	if err := s.repo.InsertBatch(ctx, entries, input.IdempotencyKey); err != nil {
		return nil, err
	}

	s.log.Info().Int("rows", len(entries)).Msg("import batch committed")
	return &ports.ImportResult{Imported: len(entries)}, nil
}

type userDay struct {
	userID int64
	date   string
}

// resolveBatch validates rows, resolves usernames and mission codes, and
// enforces per-row scope before anything is written.
func (s *TimesheetService) resolveBatch(ctx context.Context, actor domain.Actor, rows []ports.ImportRow) ([]*domain.TimeEntry, []string, map[userDay]int, error) {
	now := time.Now().UTC()
	entries := make([]*domain.TimeEntry, 0, len(rows))
	addedHours := make(map[userDay]int)
	var keys []string

	// A Lead may import for their team; a Consultant only for themselves.
	var leadVisible []int64
	if actor.Role == domain.RoleLead {
		missionIDs, err := s.scope.MissionIDsFor(ctx, actor)
		if err != nil {
			return nil, nil, nil, err
		}
		leadVisible, err = s.scope.VisibleUserIDsFor(ctx, actor, missionIDs)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	for i, row := range rows {
		field := fmt.Sprintf("row %d", i+1)

		user, err := s.users.FindByUsername(ctx, row.Username)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, nil, nil, domain.Invalid(field, "references an unknown user")
			}
			return nil, nil, nil, err
		}
		if user.ID != actor.UserID && actor.Role != domain.RoleAdmin {
			if actor.Role != domain.RoleLead || !containsID(leadVisible, user.ID) {
				return nil, nil, nil, domain.DeniedScope(actor.Role, domain.ResourceCRAEntry, domain.ActionImport, domain.ScopeOtherUser)
			}
		}

		if err := validateEntry(row.EntryDate, row.Category, row.Hours); err != nil {
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				return nil, nil, nil, domain.Invalid(field, ve.Field+" "+ve.Reason)
			}
			return nil, nil, nil, err
		}

		var missionID *int64
		if row.MissionCode != "" {
			mission, err := s.missions.FindMissionByCode(ctx, row.MissionCode)
			if err != nil {
				if errors.Is(err, domain.ErrMissionNotFound) {
					return nil, nil, nil, domain.Invalid(field, "references an unknown mission")
				}
				return nil, nil, nil, err
			}
			missionID = &mission.ID
			if err := s.checkMissionScope(ctx, actor, missionID); err != nil {
				return nil, nil, nil, err
			}
		}

		key := userDay{userID: user.ID, date: row.EntryDate}
		if addedHours[key] == 0 {
			keys = append(keys, dayKey(user.ID, row.EntryDate))
		}
		addedHours[key] += row.Hours

		entries = append(entries, &domain.TimeEntry{
			EntryDate:   row.EntryDate,
			UserID:      user.ID,
			MissionID:   missionID,
			Category:    row.Category,
			Hours:       row.Hours,
			Description: row.Description,
			CreatedAt:   now,
		})
	}
	return entries, keys, addedHours, nil
}

// ListEntries returns entries within the actor's visibility: own entries for
// a Consultant, the team on led missions for a Lead, everything for
// Board/Admin.
func (s *TimesheetService) ListEntries(ctx context.Context, actor domain.Actor, dateFrom, dateTo string) ([]*domain.TimeEntry, error) {
	if !domain.CanAccess(actor.Role, domain.ResourceCRAEntry, domain.ActionRead) {
		return nil, domain.Denied(actor.Role, domain.ResourceCRAEntry, domain.ActionRead)
	}

	missionIDs, err := s.scope.MissionIDsFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	userIDs, err := s.scope.VisibleUserIDsFor(ctx, actor, missionIDs)
	if err != nil {
		return nil, err
	}

	return s.repo.ListEntries(ctx, ports.EntryFilter{
		UserIDs:  userIDs,
		DateFrom: dateFrom,
		DateTo:   dateTo,
	})
}

// ExportEntries resolves the actor's visible entries to the CSV exchange
// vocabulary. Only operational columns are resolved; financial mission fields
// have no representation in the exchange format.
func (s *TimesheetService) ExportEntries(ctx context.Context, actor domain.Actor, dateFrom, dateTo string) ([]ports.ImportRow, error) {
	if !domain.CanAccess(actor.Role, domain.ResourceCRAEntry, domain.ActionExport) {
		return nil, domain.Denied(actor.Role, domain.ResourceCRAEntry, domain.ActionExport)
	}

	entries, err := s.ListEntries(ctx, actor, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}

	usernames := map[int64]string{}
	codes := map[int64]string{}
	rows := make([]ports.ImportRow, 0, len(entries))
	for _, e := range entries {
		name, ok := usernames[e.UserID]
		if !ok {
			u, err := s.users.FindByID(ctx, e.UserID)
			if err != nil {
				return nil, err
			}
			name = u.Username
			usernames[e.UserID] = name
		}
		var code string
		if e.MissionID != nil {
			code, ok = codes[*e.MissionID]
			if !ok {
				m, err := s.missions.FindMissionByID(ctx, *e.MissionID)
				if err != nil {
					return nil, err
				}
				code = m.Code
				codes[*e.MissionID] = code
			}
		}
		rows = append(rows, ports.ImportRow{
			EntryDate:   e.EntryDate,
			Username:    name,
			MissionCode: code,
			Category:    e.Category,
			Hours:       e.Hours,
			Description: e.Description,
		})
	}
	return rows, nil
}

// SetCapacityOverride sets a per-day capacity. Admin and Lead only; a Lead
// may only override users on their own missions.
func (s *TimesheetService) SetCapacityOverride(ctx context.Context, actor domain.Actor, input ports.CapacityOverrideInput) error {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleLead {
		return domain.Denied(actor.Role, domain.ResourceCRAEntry, domain.ActionWrite)
	}
	if _, err := time.Parse(domain.DateLayout, input.Date); err != nil {
		return domain.Invalid("cap_date", "must be an ISO date (YYYY-MM-DD)")
	}
	if input.CapacityH < 0 || input.CapacityH > 24 {
		return domain.Invalid("capacity_h", "must be between 0 and 24")
	}

	if actor.Role == domain.RoleLead {
		missionIDs, err := s.scope.MissionIDsFor(ctx, actor)
		if err != nil {
			return err
		}
		visible, err := s.scope.VisibleUserIDsFor(ctx, actor, missionIDs)
		if err != nil {
			return err
		}
		if !containsID(visible, input.UserID) {
			return domain.DeniedScope(actor.Role, domain.ResourceCRAEntry, domain.ActionWrite, domain.ScopeOtherUser)
		}
	}

	return s.repo.UpsertCapacityOverride(ctx, &domain.CapacityOverride{
		UserID:    input.UserID,
		Date:      input.Date,
		CapacityH: input.CapacityH,
		Reason:    input.Reason,
	})
}

// checkMissionScope verifies the mission belongs to the actor's perimeter.
// Admin and Board bypass; a nil mission id (internal time) always passes.
func (s *TimesheetService) checkMissionScope(ctx context.Context, actor domain.Actor, missionID *int64) error {
	if missionID == nil {
		return nil
	}
	if actor.Role == domain.RoleAdmin || actor.Role == domain.RoleBoard {
		return nil
	}
	ids, err := s.scope.MissionIDsFor(ctx, actor)
	if err != nil {
		return err
	}
	if !containsID(ids, *missionID) {
		return domain.DeniedScope(actor.Role, domain.ResourceCRAEntry, domain.ActionWrite, domain.ScopeOutOfMission)
	}
	return nil
}

// checkCapacity enforces the daily ceiling: committed hours plus the new
// hours must not exceed the user's capacity for that date.
func (s *TimesheetService) checkCapacity(ctx context.Context, userID int64, date string, addHours int) error {
	logged, err := s.repo.HoursForDay(ctx, userID, date)
	if err != nil {
		return err
	}
	capacity, err := s.repo.CapacityForDay(ctx, userID, date, s.dayHours)
	if err != nil {
		return err
	}
	if logged+addHours > capacity {
		return domain.Invalid("hours", fmt.Sprintf("daily capacity exceeded (%dh logged, %dh allowed)", logged, capacity))
	}
	return nil
}

func validateEntry(date string, category domain.Category, hours int) error {
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return domain.Invalid("entry_date", "must be an ISO date (YYYY-MM-DD)")
	}
	if !domain.ValidCategory(category) {
		return domain.Invalid("category", "must be billable, non_billable_client, or internal")
	}
	if _, ok := domain.ValidHours[hours]; !ok {
		return domain.Invalid("hours", "must be 1, 4, or 8")
	}
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// insertWithRetry retries exactly once on a transient storage error (lock
// contention); anything else propagates unmodified.
func insertWithRetry(insert func() (*domain.TimeEntry, error)) (*domain.TimeEntry, error) {
	created, err := insert()
	if err == nil {
		return created, nil
	}
	var se *domain.StorageError
	if errors.As(err, &se) && se.Transient {
		return insert()
	}
	return nil, err
}
