package service

import (
	"context"
	"strings"

	"papeleria/backend/internal/domain"
)

func (s *Service) ListClients(ctx context.Context, search string) ([]domain.Client, error) {
	return s.repo.ListClients(ctx, clean(search))
}

func (s *Service) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	return s.repo.GetClient(ctx, id)
}

func (s *Service) CreateClient(ctx context.Context, req domain.ClientRequest) (*domain.Client, error) {
	client, err := s.clientFromRequest(req)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.CreateClient(ctx, client)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "client_create", "client", created.ID, created.FullName())
	return created, nil
}

func (s *Service) UpdateClient(ctx context.Context, id string, req domain.ClientRequest) (*domain.Client, error) {
	client, err := s.clientFromRequest(req)
	if err != nil {
		return nil, err
	}
	client.ID = id
	saved, err := s.repo.UpdateClient(ctx, client)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "client_update", "client", saved.ID, saved.FullName())
	return saved, nil
}

func (s *Service) DeleteClient(ctx context.Context, id string) error {
	if err := s.repo.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "client_delete", "client", id, "")
	return nil
}

func (s *Service) clientFromRequest(req domain.ClientRequest) (domain.Client, error) {
	req.Name = clean(req.Name)
	req.Surname = clean(req.Surname)
	req.Phone = clean(req.Phone)
	req.Address = strings.ToLower(clean(req.Address))
	req.Email = strings.ToLower(clean(req.Email))
	if err := s.check(req); err != nil {
		return domain.Client{}, err
	}
	return domain.Client{
		Name:    req.Name,
		Surname: req.Surname,
		Phone:   req.Phone,
		Address: req.Address,
		Email:   req.Email,
	}, nil
}
