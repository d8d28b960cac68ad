package ticket

import (
	"context"
	"testing"

	"github.com/linguaacademy/academia/internal/model"
	"github.com/linguaacademy/academia/internal/repository"
	"github.com/linguaacademy/academia/internal/security"
)

// --- モック定義 ---

type mockTicketRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.SupportTicket, error)
	createFn     func(ctx context.Context, ticket *model.SupportTicket) error
	listByUserFn func(ctx context.Context, userID string) ([]*model.SupportTicket, error)
}

func (m *mockTicketRepo) FindByID(ctx context.Context, id string) (*model.SupportTicket, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockTicketRepo) Create(ctx context.Context, ticket *model.SupportTicket) error {
	if m.createFn != nil {
		return m.createFn(ctx, ticket)
	}
	return nil
}

func (m *mockTicketRepo) ListByUser(ctx context.Context, userID string) ([]*model.SupportTicket, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return nil, nil
}

var _ repository.TicketRepository = (*mockTicketRepo)(nil)

func newTestService(repo *mockTicketRepo) *Service {
	return NewService(repo, security.NewTextSanitizer())
}

// --- テスト ---

func TestCreate_Authenticated_Succeeds(t *testing.T) {
	var created *model.SupportTicket
	repo := &mockTicketRepo{
		createFn: func(ctx context.Context, ticket *model.SupportTicket) error {
			created = ticket
			return nil
		},
	}
	svc := newTestService(repo)

	ticket, err := svc.Create(context.Background(), CreateInput{
		UserID:      "u1",
		Subject:     "Problema con el pago",
		Description: "No puedo descargar mi recibo.",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if created == nil {
		t.Fatal("ticket was not persisted")
	}
	if ticket.Status != model.TicketStatusOpen {
		t.Errorf("Status = %q, want %q", ticket.Status, model.TicketStatusOpen)
	}
	if ticket.UserID != "u1" {
		t.Errorf("UserID = %q, want %q", ticket.UserID, "u1")
	}
	if ticket.ID == "" {
		t.Error("ID should be assigned")
	}
}

func TestCreate_Anonymous_RequiresContactInfo(t *testing.T) {
	svc := newTestService(&mockTicketRepo{})
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateInput
	}{
		{
			name: "missing name",
			input: CreateInput{
				ContactEmail: "ana@example.com",
				Subject:      "Consulta",
				Description:  "¿Cuándo empieza el curso?",
			},
		},
		{
			name: "missing email",
			input: CreateInput{
				ContactName: "Ana García",
				Subject:     "Consulta",
				Description: "¿Cuándo empieza el curso?",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.input)

			apiErr, ok := err.(*model.APIError)
			if !ok {
				t.Fatalf("expected APIError, got %T", err)
			}
			if apiErr.Code != model.ErrCodeInvalidRequest {
				t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidRequest)
			}
		})
	}
}

func TestCreate_Anonymous_WithContactInfo_Succeeds(t *testing.T) {
	svc := newTestService(&mockTicketRepo{})

	ticket, err := svc.Create(context.Background(), CreateInput{
		ContactName:  "Ana García",
		ContactEmail: "ana@example.com",
		Subject:      "Consulta",
		Description:  "¿Cuándo empieza el curso?",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if ticket.UserID != "" {
		t.Errorf("UserID = %q, want empty for anonymous ticket", ticket.UserID)
	}
	if ticket.ContactName != "Ana García" {
		t.Errorf("ContactName = %q, want %q", ticket.ContactName, "Ana García")
	}
}

func TestCreate_EmptySubjectOrDescription_ReturnsInvalidRequest(t *testing.T) {
	svc := newTestService(&mockTicketRepo{})
	ctx := context.Background()

	tests := []struct {
		name    string
		subject string
		desc    string
	}{
		{"empty subject", "", "contenido"},
		{"empty description", "asunto", ""},
		{"tags only subject", "<b></b>", "contenido"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, CreateInput{
				UserID:      "u1",
				Subject:     tt.subject,
				Description: tt.desc,
			})

			apiErr, ok := err.(*model.APIError)
			if !ok {
				t.Fatalf("expected APIError, got %T", err)
			}
			if apiErr.Code != model.ErrCodeInvalidRequest {
				t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidRequest)
			}
		})
	}
}

func TestCreate_SanitizesSubjectAndDescription(t *testing.T) {
	svc := newTestService(&mockTicketRepo{})

	ticket, err := svc.Create(context.Background(), CreateInput{
		UserID:      "u1",
		Subject:     `<script>alert(1)</script>Acceso al aula`,
		Description: `No puedo <img src=x onerror=alert(1)> entrar.`,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if ticket.Subject != "Acceso al aula" {
		t.Errorf("Subject = %q, want sanitized plain text", ticket.Subject)
	}
	if ticket.Description != "No puedo  entrar." {
		t.Errorf("Description = %q, want sanitized plain text", ticket.Description)
	}
}

func TestListMine_ReturnsOwnTickets(t *testing.T) {
	repo := &mockTicketRepo{
		listByUserFn: func(ctx context.Context, userID string) ([]*model.SupportTicket, error) {
			if userID != "u1" {
				t.Errorf("userID = %q, want %q", userID, "u1")
			}
			return []*model.SupportTicket{
				{ID: "t2", UserID: "u1", Subject: "segundo"},
				{ID: "t1", UserID: "u1", Subject: "primero"},
			}, nil
		},
	}
	svc := newTestService(repo)

	tickets, err := svc.ListMine(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListMine returned error: %v", err)
	}
	if len(tickets) != 2 {
		t.Fatalf("ticket count = %d, want 2", len(tickets))
	}
}

func TestGet_Owner_ReturnsTicket(t *testing.T) {
	repo := &mockTicketRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.SupportTicket, error) {
			return &model.SupportTicket{ID: id, UserID: "u1", Subject: "asunto"}, nil
		},
	}
	svc := newTestService(repo)

	ticket, err := svc.Get(context.Background(), "t1", "u1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if ticket.ID != "t1" {
		t.Errorf("ID = %q, want %q", ticket.ID, "t1")
	}
}

func TestGet_NonOwner_ReturnsTicketNotFound(t *testing.T) {
	repo := &mockTicketRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.SupportTicket, error) {
			return &model.SupportTicket{ID: id, UserID: "u1", Subject: "asunto"}, nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.Get(context.Background(), "t1", "intruder")

	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeTicketNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeTicketNotFound)
	}
}

func TestGet_UnknownTicket_ReturnsTicketNotFound(t *testing.T) {
	svc := newTestService(&mockTicketRepo{})

	_, err := svc.Get(context.Background(), "ghost", "u1")

	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeTicketNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeTicketNotFound)
	}
}
