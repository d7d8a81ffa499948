package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/yourname/snusquit/internal"
)

// FileStorage keeps every collection in memory and persists each one to
// <dir>/<collection>.json shortly after it changes.
type FileStorage struct {
	users        map[string]*internal.User
	plans        map[string][]*internal.Plan    // userID -> plans in creation order
	checkins     map[string][]*internal.Checkin // userID -> check-ins, unordered
	checkinByDay map[string]*internal.Checkin   // userID|date -> check-in
	tips         []*internal.Tip
	mu           sync.RWMutex
	dir          string
	saveChans    map[string]chan struct{}
	shutdownChan chan struct{}
	saveDelay    time.Duration
	workers      sync.WaitGroup
	closeOnce    sync.Once
	logger       internal.Logger
}

func NewFileStorage(dir string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		users:        make(map[string]*internal.User),
		plans:        make(map[string][]*internal.Plan),
		checkins:     make(map[string][]*internal.Checkin),
		checkinByDay: make(map[string]*internal.Checkin),
		dir:          dir,
		saveChans:    make(map[string]chan struct{}, len(collections)),
		shutdownChan: make(chan struct{}),
		saveDelay:    500 * time.Millisecond,
		logger:       logger,
	}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}
	if err := s.load(); err != nil {
		logger.Errorf("storage: failed to load %s: %v", dir, err)
		return nil, err
	}

	for _, name := range collections {
		ch := make(chan struct{}, 1)
		s.saveChans[name] = ch
		s.workers.Add(1)
		go s.saveWorker(name, ch)
	}
	return s, nil
}

func (s *FileStorage) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

func readJSONFile(path string, out interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (s *FileStorage) load() error {
	var (
		users    []*internal.User
		plans    []*internal.Plan
		checkins []*internal.Checkin
		tips     []*internal.Tip
	)
	if err := readJSONFile(s.path(CollUser), &users); err != nil {
		return err
	}
	if err := readJSONFile(s.path(CollPlan), &plans); err != nil {
		return err
	}
	if err := readJSONFile(s.path(CollCheckin), &checkins); err != nil {
		return err
	}
	if err := readJSONFile(s.path(CollTip), &tips); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		s.users[u.ID] = u
	}
	sort.SliceStable(plans, func(i, j int) bool { return planBefore(plans[i], plans[j]) })
	for _, p := range plans {
		s.plans[p.UserID] = append(s.plans[p.UserID], p)
	}
	for _, c := range checkins {
		s.checkins[c.UserID] = append(s.checkins[c.UserID], c)
		if c.Date != "" {
			s.checkinByDay[dayKey(c.UserID, c.Date)] = c
		}
	}
	s.tips = tips
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

// snapshot copies one collection under the read lock.
func (s *FileStorage) snapshot(collection string) interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch collection {
	case CollUser:
		out := make([]internal.User, 0, len(s.users))
		for _, u := range s.users {
			out = append(out, *u)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return out
	case CollPlan:
		out := make([]internal.Plan, 0)
		for _, ps := range s.plans {
			for _, p := range ps {
				out = append(out, *p)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return out
	case CollCheckin:
		out := make([]internal.Checkin, 0)
		for _, cs := range s.checkins {
			for _, c := range cs {
				out = append(out, *c)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return out
	default:
		out := make([]internal.Tip, 0, len(s.tips))
		for _, t := range s.tips {
			out = append(out, *t)
		}
		return out
	}
}

func (s *FileStorage) save(collection string) error {
	return atomicWriteFileJSON(s.path(collection), s.snapshot(collection))
}

func (s *FileStorage) saveWorker(collection string, trigger <-chan struct{}) {
	defer s.workers.Done()
	timer := time.NewTimer(s.saveDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-trigger:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := s.save(collection); err != nil {
				s.logger.Errorf("storage: error saving %s: %v", collection, err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

// markDirty schedules a save without blocking; callers may hold s.mu.
func (s *FileStorage) markDirty(collection string) {
	select {
	case s.saveChans[collection] <- struct{}{}:
	default:
	}
}

// Close stops the workers and writes every collection synchronously.
func (s *FileStorage) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.shutdownChan)
		s.workers.Wait()
		for _, name := range collections {
			if saveErr := s.save(name); saveErr != nil && err == nil {
				err = saveErr
			}
		}
	})
	return err
}

func (s *FileStorage) Name() string { return "file" }

func (s *FileStorage) Database() string { return s.dir }

func (s *FileStorage) Ping(ctx context.Context) error {
	if _, err := os.Stat(s.dir); err != nil {
		return fmt.Errorf("storage: %w: %w", internal.ErrStoreUnavailable, err)
	}
	return nil
}

// Collections names the collections holding at least one record.
func (s *FileStorage) Collections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sizes := map[string]int{
		CollUser:    len(s.users),
		CollPlan:    len(s.plans),
		CollCheckin: len(s.checkinByDay),
		CollTip:     len(s.tips),
	}
	names := make([]string, 0, len(collections))
	for _, name := range collections {
		if sizes[name] > 0 {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *FileStorage) Migrate(ctx context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("storage: create data dir: %w", err)
	}
	return nil
}

// --- UserRepository ---
func (s *FileStorage) CreateUser(ctx context.Context, user *internal.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	u.ID = newID()
	u.CreatedAt = time.Now().UTC()
	s.users[u.ID] = &u
	s.markDirty(CollUser)
	return u.ID, nil
}

func (s *FileStorage) UserExists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[id]
	return ok, nil
}

// --- PlanRepository ---
func (s *FileStorage) CreatePlan(ctx context.Context, plan *internal.Plan) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *plan
	p.ID = newID()
	p.CreatedAt = time.Now().UTC()
	s.plans[p.UserID] = append(s.plans[p.UserID], &p)
	s.markDirty(CollPlan)
	return p.ID, nil
}

func (s *FileStorage) LatestPlan(ctx context.Context, userID string) (*internal.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *internal.Plan
	for _, p := range s.plans[userID] {
		if latest == nil || planBefore(latest, p) {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

// --- CheckinRepository ---
func (s *FileStorage) UpsertCheckin(ctx context.Context, checkin *internal.Checkin) (string, error) {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	key := dayKey(checkin.UserID, checkin.Date)
	if existing, ok := s.checkinByDay[key]; ok {
		existing.NicotineFree = checkin.NicotineFree
		existing.PortionsUsed = checkin.PortionsUsed
		existing.CravingLevel = checkin.CravingLevel
		existing.Note = checkin.Note
		existing.UpdatedAt = now
		s.markDirty(CollCheckin)
		return existing.ID, nil
	}

	c := *checkin
	c.ID = newID()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.checkins[c.UserID] = append(s.checkins[c.UserID], &c)
	s.checkinByDay[key] = &c
	s.markDirty(CollCheckin)
	return c.ID, nil
}

func (s *FileStorage) ListCheckins(ctx context.Context, userID string, limit int) ([]internal.Checkin, error) {
	out := s.userCheckins(userID)
	sort.SliceStable(out, func(i, j int) bool { return checkinBefore(&out[j], &out[i]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *FileStorage) CheckinHistory(ctx context.Context, userID string) ([]internal.Checkin, error) {
	out := s.userCheckins(userID)
	sort.SliceStable(out, func(i, j int) bool { return checkinBefore(&out[i], &out[j]) })
	return out, nil
}

func (s *FileStorage) userCheckins(userID string) []internal.Checkin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ptrs := s.checkins[userID]
	out := make([]internal.Checkin, len(ptrs))
	for i, c := range ptrs {
		out[i] = *c
	}
	return out
}

// --- TipRepository ---
func (s *FileStorage) CountTips(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.tips)), nil
}

func (s *FileStorage) SeedTips(ctx context.Context, tips []internal.Tip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(s.tips))
	for _, t := range s.tips {
		seen[t.Title] = true
	}
	added := false
	for _, t := range tips {
		if seen[t.Title] {
			continue
		}
		tip := t
		tip.ID = newID()
		s.tips = append(s.tips, &tip)
		seen[t.Title] = true
		added = true
	}
	if added {
		s.markDirty(CollTip)
	}
	return nil
}

func (s *FileStorage) ListTips(ctx context.Context, limit int) ([]internal.Tip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.tips)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]internal.Tip, n)
	for i := 0; i < n; i++ {
		out[i] = *s.tips[i]
	}
	return out, nil
}

func dayKey(userID, date string) string {
	return userID + "|" + date
}

// planBefore orders plans by creation time, then by id.
func planBefore(a, b *internal.Plan) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// checkinBefore orders check-ins by date, undated ones first, then by id.
func checkinBefore(a, b *internal.Checkin) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	return a.ID < b.ID
}

// --- Compile-time assertions ---
var _ Store = (*FileStorage)(nil)
