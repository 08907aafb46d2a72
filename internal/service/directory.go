package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"posadmin/internal/domain"
	"posadmin/internal/store"
	"posadmin/internal/xid"
)

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) AddCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return domain.Category{}, invalid("category name is required")
	}
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	if category.ID == "" {
		category.ID = xid.New("cat")
	} else if findIndex(categories, category.ID, categoryID) >= 0 {
		return domain.Category{}, invalid("category %s already exists", category.ID)
	}
	now := s.clock()
	category.CreatedAt, category.UpdatedAt = now, now

	categories = append(categories, category)
	if err := s.repo.SaveCategories(ctx, categories); err != nil {
		return domain.Category{}, fmt.Errorf("save categories: %w", err)
	}
	s.logAudit(ctx, "category.create", "category", category.ID, category.Name)
	return category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id string, patch domain.DirectoryPatch) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	idx := findIndex(categories, id, categoryID)
	if idx < 0 {
		return nil, nil
	}
	c := categories[idx]
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, invalid("category name is required")
		}
		c.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	c.UpdatedAt = s.clock()
	categories[idx] = c
	if err := s.repo.SaveCategories(ctx, categories); err != nil {
		return nil, fmt.Errorf("save categories: %w", err)
	}
	return &c, nil
}

// DeleteCategory does not touch products that reference the category.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return err
	}
	idx := findIndex(categories, id, categoryID)
	if idx < 0 {
		return nil
	}
	categories = slices.Delete(categories, idx, idx+1)
	if err := s.repo.SaveCategories(ctx, categories); err != nil {
		return fmt.Errorf("save categories: %w", err)
	}
	s.logAudit(ctx, "category.delete", "category", id, "")
	return nil
}

func (s *Service) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	return s.repo.ListVendors(ctx)
}

func (s *Service) GetVendor(ctx context.Context, id string) (domain.Vendor, error) {
	vendors, err := s.repo.ListVendors(ctx)
	if err != nil {
		return domain.Vendor{}, err
	}
	idx := findIndex(vendors, id, vendorID)
	if idx < 0 {
		return domain.Vendor{}, store.ErrNotFound
	}
	return vendors[idx], nil
}

func (s *Service) AddVendor(ctx context.Context, vendor domain.Vendor) (domain.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vendor.Name = strings.TrimSpace(vendor.Name)
	if vendor.Name == "" {
		return domain.Vendor{}, invalid("vendor name is required")
	}
	vendors, err := s.repo.ListVendors(ctx)
	if err != nil {
		return domain.Vendor{}, err
	}
	if vendor.ID == "" {
		vendor.ID = xid.New("vend")
	} else if findIndex(vendors, vendor.ID, vendorID) >= 0 {
		return domain.Vendor{}, invalid("vendor %s already exists", vendor.ID)
	}
	now := s.clock()
	vendor.CreatedAt, vendor.UpdatedAt = now, now

	vendors = append(vendors, vendor)
	if err := s.repo.SaveVendors(ctx, vendors); err != nil {
		return domain.Vendor{}, fmt.Errorf("save vendors: %w", err)
	}
	s.logAudit(ctx, "vendor.create", "vendor", vendor.ID, vendor.Name)
	return vendor, nil
}

func (s *Service) UpdateVendor(ctx context.Context, id string, patch domain.DirectoryPatch) (*domain.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vendors, err := s.repo.ListVendors(ctx)
	if err != nil {
		return nil, err
	}
	idx := findIndex(vendors, id, vendorID)
	if idx < 0 {
		return nil, nil
	}
	v := vendors[idx]
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, invalid("vendor name is required")
		}
		v.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.ContactName != nil {
		v.ContactName = *patch.ContactName
	}
	if patch.Email != nil {
		v.Email = *patch.Email
	}
	if patch.Phone != nil {
		v.Phone = *patch.Phone
	}
	if patch.Address != nil {
		v.Address = *patch.Address
	}
	if patch.Notes != nil {
		v.Notes = *patch.Notes
	}
	v.UpdatedAt = s.clock()
	vendors[idx] = v
	if err := s.repo.SaveVendors(ctx, vendors); err != nil {
		return nil, fmt.Errorf("save vendors: %w", err)
	}
	return &v, nil
}

func (s *Service) DeleteVendor(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vendors, err := s.repo.ListVendors(ctx)
	if err != nil {
		return err
	}
	idx := findIndex(vendors, id, vendorID)
	if idx < 0 {
		return nil
	}
	vendors = slices.Delete(vendors, idx, idx+1)
	if err := s.repo.SaveVendors(ctx, vendors); err != nil {
		return fmt.Errorf("save vendors: %w", err)
	}
	s.logAudit(ctx, "vendor.delete", "vendor", id, "")
	return nil
}
