package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/tutorlog/sessionlog/internal/app/models"
	"github.com/tutorlog/sessionlog/internal/pkg/apperrors"
	"github.com/tutorlog/sessionlog/internal/pkg/fastbill"
	"github.com/tutorlog/sessionlog/internal/pkg/filestorage"
)

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
)

type memCustomers struct {
	mu        sync.Mutex
	nextID    int64
	items     []*models.Customer
	createErr error
}

func (m *memCustomers) Create(_ context.Context, c *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.items {
		if c.Email != nil && existing.Email != nil && strings.EqualFold(*c.Email, *existing.Email) {
			return apperrors.ErrEmailAlreadyExists
		}
		if c.FastbillCustomerID != nil && existing.FastbillCustomerID != nil && *c.FastbillCustomerID == *existing.FastbillCustomerID {
			return apperrors.ErrFastbillIDConflict
		}
	}
	m.nextID++
	c.ID = m.nextID
	c.CreatedAt = time.Now()
	m.items = append(m.items, c)
	return nil
}

func (m *memCustomers) GetByID(_ context.Context, id int64) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.items {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, apperrors.ErrCustomerNotFound
}

func (m *memCustomers) List(_ context.Context) ([]*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Customer(nil), m.items...), nil
}

func (m *memCustomers) EmailExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.items {
		if c.Email != nil && strings.EqualFold(*c.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCustomers) FastbillIDs(_ context.Context) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := map[string]struct{}{}
	for _, c := range m.items {
		if c.FastbillCustomerID != nil {
			ids[*c.FastbillCustomerID] = struct{}{}
		}
	}
	return ids, nil
}

type memStudents struct {
	nextID    int64
	items     []*models.Student
	createErr error
}

func (m *memStudents) Create(_ context.Context, s *models.Student) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.items {
		if existing.CustomerID == s.CustomerID &&
			strings.EqualFold(existing.FirstName, s.FirstName) &&
			strings.EqualFold(existing.LastName, s.LastName) {
			return apperrors.ErrStudentAlreadyExists
		}
	}
	m.nextID++
	s.ID = m.nextID
	m.items = append(m.items, s)
	return nil
}

func (m *memStudents) GetByID(_ context.Context, id int64) (*models.Student, error) {
	for _, s := range m.items {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, apperrors.ErrStudentNotFound
}

func (m *memStudents) List(_ context.Context, customerID *int64) ([]*models.Student, error) {
	var out []*models.Student
	for _, s := range m.items {
		if customerID == nil || s.CustomerID == *customerID {
			out = append(out, s)
		}
	}
	return out, nil
}

type memSessions struct {
	nextID    int64
	items     []*models.StudySession
	createErr error
	lastLimit int
	lastOff   uint64
}

func (m *memSessions) Create(_ context.Context, s *models.StudySession) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	s.ID = m.nextID
	s.CreatedAt = time.Now()
	m.items = append(m.items, s)
	return nil
}

func (m *memSessions) GetByID(_ context.Context, id int64) (*models.StudySession, error) {
	for _, s := range m.items {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, apperrors.ErrSessionNotFound
}

func (m *memSessions) List(_ context.Context, studentID *int64, offset uint64, limit int) ([]*models.StudySession, int64, error) {
	m.lastOff, m.lastLimit = offset, limit
	var matched []*models.StudySession
	for i := len(m.items) - 1; i >= 0; i-- {
		if studentID == nil || m.items[i].StudentID == *studentID {
			matched = append(matched, m.items[i])
		}
	}
	total := int64(len(matched))
	if offset >= uint64(len(matched)) {
		return nil, total, nil
	}
	end := int(offset) + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *memSessions) tx() SessionTx {
	return func(ctx context.Context, fn func(ctx context.Context, sessions SessionStore) error) error {
		return fn(ctx, m)
	}
}

type memProofs struct {
	backend filestorage.Backend
	saveErr error
	objects map[string][]byte
	saved   []filestorage.SaveRequest
}

func newMemProofs(backend filestorage.Backend) *memProofs {
	return &memProofs{backend: backend, objects: map[string][]byte{}}
}

func (m *memProofs) Save(_ context.Context, req filestorage.SaveRequest) (*filestorage.Object, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.saved = append(m.saved, req)
	key := req.NamePrefix + "obj" + req.Ext
	if req.Dir != "" {
		key = req.Dir + "/" + key
	}
	m.objects[key] = req.Data
	return &filestorage.Object{Key: key, Backend: m.backend, Size: int64(len(req.Data)), ContentType: req.ContentType}, nil
}

func (m *memProofs) Open(_ context.Context, backend filestorage.Backend, key string) (io.ReadCloser, error) {
	if backend != m.backend {
		return nil, filestorage.ErrUnknownBackend
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, filestorage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memProofs) URL(_ context.Context, backend filestorage.Backend, key string, ttl time.Duration) (string, error) {
	if backend == filestorage.BackendLocal {
		return "", filestorage.ErrPresignNotSupport
	}
	return "https://r2.example/" + key + "?ttl=" + ttl.String(), nil
}

type fakeSource struct {
	customers []fastbill.Customer
	err       error
}

func (f *fakeSource) ListCustomers(context.Context) ([]fastbill.Customer, error) {
	return f.customers, f.err
}

var errDB = errors.New("connection refused")
