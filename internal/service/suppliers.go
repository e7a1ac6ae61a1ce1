package service

import (
	"context"
	"strings"

	"papeleria/backend/internal/domain"
)

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	return s.repo.GetSupplier(ctx, id)
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierRequest) (*domain.Supplier, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	supplier, err := s.supplierFromRequest(req)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.CreateSupplier(ctx, supplier)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "supplier_create", "supplier", created.ID, created.CompanyName)
	return created, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, id string, req domain.SupplierRequest) (*domain.Supplier, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	supplier, err := s.supplierFromRequest(req)
	if err != nil {
		return nil, err
	}
	supplier.ID = id
	saved, err := s.repo.UpdateSupplier(ctx, supplier)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "supplier_update", "supplier", saved.ID, saved.CompanyName)
	return saved, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeleteSupplier(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "supplier_delete", "supplier", id, "")
	return nil
}

func (s *Service) supplierFromRequest(req domain.SupplierRequest) (domain.Supplier, error) {
	req.CompanyName = clean(req.CompanyName)
	req.Contact = clean(req.Contact)
	req.Phone = clean(req.Phone)
	req.Email = strings.ToLower(clean(req.Email))
	if err := s.check(req); err != nil {
		return domain.Supplier{}, err
	}
	return domain.Supplier{
		CompanyName: req.CompanyName,
		Contact:     req.Contact,
		Phone:       req.Phone,
		Email:       req.Email,
	}, nil
}
