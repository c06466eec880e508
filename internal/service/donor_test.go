package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BloodConnect/config"
	"BloodConnect/internal/model"
	"BloodConnect/internal/model/dto"
	"BloodConnect/internal/repository"
	"BloodConnect/pkg/errors"
)

type fakeDonors struct {
	created []*model.Donor
	all     []model.Donor
	filter  repository.DonorFilter
	status  model.DonationStatus
}

func (f *fakeDonors) Create(ctx context.Context, d *model.Donor) error {
	f.created = append(f.created, d)
	return nil
}

func (f *fakeDonors) FindByPublicID(ctx context.Context, id int64) (*model.Donor, error) {
	for i := range f.all {
		if f.all[i].PublicID == id {
			return &f.all[i], nil
		}
	}
	return nil, errors.DonorNotFound
}

func (f *fakeDonors) Search(ctx context.Context, filter repository.DonorFilter) ([]model.Donor, error) {
	f.filter = filter
	return f.all, nil
}

func (f *fakeDonors) UpdateAvailability(ctx context.Context, id int64, available bool) error {
	return nil
}

func (f *fakeDonors) UpdateDonationStatus(ctx context.Context, id int64, status model.DonationStatus) error {
	f.status = status
	return nil
}

func (f *fakeDonors) Delete(ctx context.Context, id int64) error { return nil }

func validRegistration() dto.RegisterDonorRequest {
	return dto.RegisterDonorRequest{
		Name:       " Asha ",
		Phone:      "9876543210",
		Email:      "asha@example.com",
		BloodGroup: "o+",
		District:   "Hyderabad",
	}
}

func TestDonorRegister(t *testing.T) {
	config.Cfg.DefaultCountryCode = "91"
	store := &fakeDonors{}
	svc := NewDonorService(store)

	item, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	require.Len(t, store.created, 1)

	d := store.created[0]
	assert.Equal(t, "Asha", d.Name)
	assert.Equal(t, "+919876543210", d.Phone)
	assert.Equal(t, model.BloodGroupOPos, d.BloodGroup)
	assert.Equal(t, model.DonationStatusAvailable, d.DonationStatus)
	assert.True(t, d.IsAvailable)
	assert.NotZero(t, d.PublicID)
	assert.Equal(t, d.PublicID, item.PublicID)
	assert.Equal(t, "asha@example.com", item.Email)
}

func TestDonorRegister_Validation(t *testing.T) {
	config.Cfg.DefaultCountryCode = "91"
	svc := NewDonorService(&fakeDonors{})

	tests := []struct {
		name   string
		mutate func(r *dto.RegisterDonorRequest)
		want   error
	}{
		{name: "blood group", mutate: func(r *dto.RegisterDonorRequest) { r.BloodGroup = "C+" }, want: errors.InvalidBloodGroup},
		{name: "district", mutate: func(r *dto.RegisterDonorRequest) { r.District = "Atlantis" }, want: errors.InvalidDistrict},
		{name: "phone", mutate: func(r *dto.RegisterDonorRequest) { r.Phone = "12" }, want: errors.InvalidPhone},
		{name: "email", mutate: func(r *dto.RegisterDonorRequest) { r.Email = "not-an-email" }, want: errors.InvalidEmail},
		{name: "whatsapp", mutate: func(r *dto.RegisterDonorRequest) { r.WhatsAppNumber = "abc" }, want: errors.InvalidPhone},
		{name: "blank name", mutate: func(r *dto.RegisterDonorRequest) { r.Name = "  " }, want: errors.InvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegistration()
			tt.mutate(&req)
			_, err := svc.Register(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDonorSearch_PublicMasksPhone(t *testing.T) {
	store := &fakeDonors{all: []model.Donor{{
		PublicID: 7, Name: "Asha", Phone: "+919876543210", Email: "asha@example.com",
		BloodGroup: model.BloodGroupOPos, District: "Hyderabad", IsAvailable: true,
	}}}
	svc := NewDonorService(store)

	items, err := svc.Search(context.Background(), dto.SearchDonorsQuery{BloodGroup: "o+", District: "Hyderabad"}, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, repository.DonorFilter{OnlyAvailable: true, BloodGroup: "O+", District: "Hyderabad"}, store.filter)
	assert.Equal(t, "*********3210", items[0].Phone)
	assert.Empty(t, items[0].Email)

	items, err = svc.Search(context.Background(), dto.SearchDonorsQuery{}, true)
	require.NoError(t, err)
	assert.False(t, store.filter.OnlyAvailable)
	assert.Equal(t, "+919876543210", items[0].Phone)
	assert.Equal(t, "asha@example.com", items[0].Email)

	_, err = svc.Search(context.Background(), dto.SearchDonorsQuery{District: "Atlantis"}, false)
	assert.ErrorIs(t, err, errors.InvalidDistrict)
}

func TestDonorSetDonationStatus(t *testing.T) {
	store := &fakeDonors{}
	svc := NewDonorService(store)

	require.NoError(t, svc.SetDonationStatus(context.Background(), 7, "Donated"))
	assert.Equal(t, model.DonationStatusDonated, store.status)

	assert.ErrorIs(t, svc.SetDonationStatus(context.Background(), 7, "donated"), errors.InvalidDonationStatus)
}
