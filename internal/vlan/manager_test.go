package vlan

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/airfleet-core/internal/infrastructure/logging"
)

// MockRepository is an in-memory Repository for manager tests.
type MockRepository struct {
	vlans map[int]*VLAN
}

func NewMockRepository() *MockRepository {
	return &MockRepository{vlans: make(map[int]*VLAN)}
}

func (m *MockRepository) CreateOrReplace(_ context.Context, v *VLAN) error {
	m.vlans[v.ID] = v.Copy()
	return nil
}

func (m *MockRepository) Get(_ context.Context, id int) (*VLAN, error) {
	v, ok := m.vlans[id]
	if !ok {
		return nil, ErrVLANNotFound
	}
	return v.Copy(), nil
}

func (m *MockRepository) List(_ context.Context) ([]VLAN, error) {
	var out []VLAN
	for _, v := range m.vlans {
		out = append(out, *v.Copy())
	}
	return out, nil
}

func (m *MockRepository) AddMember(_ context.Context, vlanID int, apID string) error {
	v, ok := m.vlans[vlanID]
	if !ok {
		return ErrVLANNotFound
	}
	for _, existing := range v.Members {
		if existing == apID {
			return nil
		}
	}
	v.Members = append(v.Members, apID)
	return nil
}

func testManager(t *testing.T) (*Manager, *MockRepository) {
	t.Helper()
	repo := NewMockRepository()
	return NewManager(repo, logging.Default()), repo
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		vlan    *VLAN
		wantErr bool
	}{
		{"valid", &VLAN{ID: 10, SSID: "guest"}, false},
		{"max id", &VLAN{ID: 4094, SSID: "edge"}, false},
		{"nil", nil, true},
		{"zero id", &VLAN{ID: 0, SSID: "guest"}, true},
		{"negative id", &VLAN{ID: -5, SSID: "guest"}, true},
		{"id beyond range", &VLAN{ID: 4095, SSID: "guest"}, true},
		{"missing ssid", &VLAN{ID: 10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.vlan)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidVLAN) {
				t.Errorf("error = %v, want ErrInvalidVLAN", err)
			}
		})
	}
}

func TestCreateOrReplaceRejectsInvalid(t *testing.T) {
	mgr, repo := testManager(t)
	_, err := mgr.CreateOrReplace(context.Background(), &VLAN{ID: 10})
	if !errors.Is(err, ErrInvalidVLAN) {
		t.Errorf("error = %v, want ErrInvalidVLAN", err)
	}
	if len(repo.vlans) != 0 {
		t.Error("invalid vlan reached the repository")
	}
}

func TestCreateOrReplaceNormalisesMembers(t *testing.T) {
	mgr, _ := testManager(t)
	got, err := mgr.CreateOrReplace(context.Background(), &VLAN{ID: 10, SSID: "guest"})
	if err != nil {
		t.Fatalf("CreateOrReplace() error = %v", err)
	}
	if got.Members == nil {
		t.Error("members = nil, want empty slice")
	}
}

func TestListNeverNil(t *testing.T) {
	mgr, _ := testManager(t)
	vlans, err := mgr.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if vlans == nil {
		t.Error("List() = nil, want empty slice")
	}
}

func TestRecordMembershipCreatesImplicitVLAN(t *testing.T) {
	mgr, repo := testManager(t)
	ctx := context.Background()

	if err := mgr.RecordMembership(ctx, 30, "ap-01"); err != nil {
		t.Fatalf("RecordMembership() error = %v", err)
	}

	v, ok := repo.vlans[30]
	if !ok {
		t.Fatal("vlan 30 not created implicitly")
	}
	if len(v.Members) != 1 || v.Members[0] != "ap-01" {
		t.Errorf("members = %v, want [ap-01]", v.Members)
	}

	// Second push for the same pair stays a single row.
	if err := mgr.RecordMembership(ctx, 30, "ap-01"); err != nil {
		t.Fatalf("second RecordMembership() error = %v", err)
	}
	if len(repo.vlans[30].Members) != 1 {
		t.Errorf("members = %v, want single row", repo.vlans[30].Members)
	}
}

func TestRecordMembershipRejectsOutOfRangeID(t *testing.T) {
	mgr, _ := testManager(t)
	err := mgr.RecordMembership(context.Background(), 5000, "ap-01")
	if !errors.Is(err, ErrInvalidVLAN) {
		t.Errorf("error = %v, want ErrInvalidVLAN", err)
	}
}
