package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"pos_sales/internal/auth"
)

var tracer = otel.Tracer("pos_sales/internal/sales")

// OwnerDirectory answers whether a principal id refers to an existing user.
type OwnerDirectory interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// CreateInput is the decoded body of a create request. Items is still
// untyped; it goes through NormalizeItems.
type CreateInput struct {
	Items         any
	PaymentMethod string
	Status        string
	SaleDate      *time.Time
	OwnerID       string
}

// UpdateInput carries only the fields the caller wants to change. Items are
// replaced when ReplaceItems is set.
type UpdateInput struct {
	Items         any
	ReplaceItems  bool
	PaymentMethod *string
	Status        *string
	SaleDate      *time.Time
	OwnerID       *string
}

// Service provides high-level sales management operations on a Storage backend.
type Service struct {
	storage   Storage
	directory OwnerDirectory
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new Service.
func NewService(storage Storage, directory OwnerDirectory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		storage:   storage,
		directory: directory,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateSale handles the creation of a new sale on behalf of actor.
func (s *Service) CreateSale(ctx context.Context, actor auth.Principal, in CreateInput) (_ *Sale, err error) {
	ctx, span := tracer.Start(ctx, "sales.CreateSale")
	defer func() { endSpan(span, err) }()

	ownerID := in.OwnerID
	if ownerID == "" {
		ownerID = actor.ID
	}
	if err := AuthorizeCreate(actor, ownerID); err != nil {
		s.logger.Warn("sale creation denied", zap.String("actor_id", actor.ID), zap.String("owner_id", ownerID))
		return nil, err
	}

	items, err := NormalizeItems(in.Items)
	if err != nil {
		return nil, err
	}
	paymentMethod, err := ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}
	status := StatusCompleted
	if in.Status != "" {
		if status, err = ParseStatus(in.Status); err != nil {
			return nil, err
		}
	}
	saleDate := s.now()
	if in.SaleDate != nil {
		saleDate = in.SaleDate.UTC()
	}

	sale := &Sale{
		SaleDate:      saleDate,
		OwnerID:       ownerID,
		Items:         items,
		Status:        status,
		PaymentMethod: paymentMethod,
	}
	if err := sale.Finalize(); err != nil {
		return nil, err
	}

	if ownerID != actor.ID {
		if err := s.ensureOwnerExists(ctx, ownerID); err != nil {
			return nil, err
		}
	}

	if err := s.storage.Insert(ctx, sale); err != nil {
		s.logger.Error("failed to save sale", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, &PersistenceError{Op: "insert", Err: err}
	}

	s.logger.Info("sale created",
		zap.String("sale_id", sale.ID),
		zap.String("owner_id", sale.OwnerID),
		zap.String("total_amount", sale.TotalAmount.String()),
		zap.Int("items", len(sale.Items)),
	)
	return sale, nil
}

// ListSales returns the sales visible to actor, newest first. A seller only
// ever sees their own sales, whatever ownerID was requested.
func (s *Service) ListSales(ctx context.Context, actor auth.Principal, ownerID, status string) (_ []*Sale, _ SalesMetadata, err error) {
	ctx, span := tracer.Start(ctx, "sales.ListSales")
	defer func() { endSpan(span, err) }()

	filter := Filter{OwnerID: ownerID}
	if status != "" {
		parsed, err := ParseStatus(status)
		if err != nil {
			s.logger.Warn("invalid status filter provided", zap.String("status_filter", status))
			return nil, SalesMetadata{}, err
		}
		filter.Status = parsed
	}
	filter = ScopeFilter(actor, filter)

	sales, err := s.storage.Find(ctx, filter)
	if err != nil {
		s.logger.Error("failed to get sales from storage", zap.Error(err))
		return nil, SalesMetadata{}, &PersistenceError{Op: "find", Err: err}
	}

	metadata := summarize(sales)
	s.logger.Info("sales search completed",
		zap.String("actor_id", actor.ID),
		zap.String("owner_filter", filter.OwnerID),
		zap.String("status_filter", string(filter.Status)),
		zap.Int("results_count", len(sales)),
	)
	return sales, metadata, nil
}

// GetSale returns one sale. Identifier shape is checked before existence,
// and existence before ownership.
func (s *Service) GetSale(ctx context.Context, actor auth.Principal, id string) (_ *Sale, err error) {
	ctx, span := tracer.Start(ctx, "sales.GetSale", trace.WithAttributes(attribute.String("sale.id", id)))
	defer func() { endSpan(span, err) }()

	sale, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeRead(actor, sale); err != nil {
		s.logger.Warn("sale read denied", zap.String("sale_id", id), zap.String("actor_id", actor.ID))
		return nil, err
	}
	return sale, nil
}

// UpdateSale applies in to an existing sale. The total is always derived
// again; nothing the caller sends can set it.
func (s *Service) UpdateSale(ctx context.Context, actor auth.Principal, id string, in UpdateInput) (_ *Sale, err error) {
	ctx, span := tracer.Start(ctx, "sales.UpdateSale", trace.WithAttributes(attribute.String("sale.id", id)))
	defer func() { endSpan(span, err) }()

	sale, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeUpdate(actor, sale); err != nil {
		s.logger.Warn("sale update denied", zap.String("sale_id", id), zap.String("actor_id", actor.ID))
		return nil, err
	}

	if in.ReplaceItems {
		items, err := NormalizeItems(in.Items)
		if err != nil {
			return nil, err
		}
		sale.Items = items
	}
	if in.PaymentMethod != nil {
		if sale.PaymentMethod, err = ParsePaymentMethod(*in.PaymentMethod); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		if sale.Status, err = ParseStatus(*in.Status); err != nil {
			return nil, err
		}
	}
	if in.SaleDate != nil {
		sale.SaleDate = in.SaleDate.UTC()
	}
	ownerChanged := false
	if in.OwnerID != nil && *in.OwnerID != sale.OwnerID {
		sale.OwnerID = *in.OwnerID
		ownerChanged = true
	}

	if err := sale.Finalize(); err != nil {
		return nil, err
	}
	if ownerChanged {
		if err := s.ensureOwnerExists(ctx, sale.OwnerID); err != nil {
			return nil, err
		}
	}

	if err := s.storage.Update(ctx, sale); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{Resource: "sale", ID: id}
		}
		s.logger.Error("failed to update sale", zap.String("sale_id", id), zap.Error(err))
		return nil, &PersistenceError{Op: "update", Err: err}
	}

	s.logger.Info("sale updated",
		zap.String("sale_id", sale.ID),
		zap.String("actor_id", actor.ID),
		zap.String("total_amount", sale.TotalAmount.String()),
	)
	return sale, nil
}

// CheckUpdate runs the id, existence and role checks of UpdateSale without
// changing anything.
func (s *Service) CheckUpdate(ctx context.Context, actor auth.Principal, id string) error {
	sale, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return AuthorizeUpdate(actor, sale)
}

func (s *Service) load(ctx context.Context, id string) (*Sale, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}
	sale, err := s.storage.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{Resource: "sale", ID: id}
		}
		s.logger.Error("failed to read sale", zap.String("sale_id", id), zap.Error(err))
		return nil, &PersistenceError{Op: "find_by_id", Err: err}
	}
	return sale, nil
}

func (s *Service) ensureOwnerExists(ctx context.Context, ownerID string) error {
	if s.directory == nil {
		return &PersistenceError{Op: "lookup_user", Err: errors.New("no user directory configured")}
	}
	exists, err := s.directory.Exists(ctx, ownerID)
	if err != nil {
		s.logger.Error("error validating user", zap.String("owner_id", ownerID), zap.Error(err))
		return &PersistenceError{Op: "lookup_user", Err: err}
	}
	if !exists {
		return &NotFoundError{Resource: "user", ID: ownerID}
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
