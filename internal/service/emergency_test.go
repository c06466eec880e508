package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BloodConnect/config"
	"BloodConnect/internal/model"
	"BloodConnect/internal/model/dto"
	"BloodConnect/internal/notify"
	"BloodConnect/pkg/errors"
)

func validRequest() dto.CreateEmergencyRequest {
	return dto.CreateEmergencyRequest{
		BloodGroup:   "b+",
		District:     "Hyderabad",
		Urgency:      "CRITICAL",
		ContactName:  " Asha ",
		ContactPhone: "9876543210",
		PatientName:  "Ravi",
	}
}

func newTestEmergency(runner TaskRunner, d dispatcher, m *fakeMailer, vols fakeVolunteers) (*EmergencyService, *fakeRequests) {
	reqs := newFakeRequests()
	deps := EmergencyDeps{
		Requests:   reqs,
		Volunteers: vols,
		Dispatcher: d,
		Runner:     func() TaskRunner { return runner },
	}
	if m != nil {
		deps.Mailer = m
	}
	return NewEmergencyService(deps), reqs
}

func TestEmergencyCreate_SubmitsTaskAndReturns(t *testing.T) {
	runner := &fakeRunner{}
	svc, reqs := newTestEmergency(runner, &fakeDispatcher{}, nil, fakeVolunteers{})

	resp, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "fake", resp.DispatchMode)
	assert.Equal(t, "B+", resp.Request.BloodGroup)
	assert.Equal(t, "critical", resp.Request.Urgency)
	assert.Equal(t, "Asha", resp.Request.ContactName)
	assert.Equal(t, string(model.RequestStatusOpen), resp.Request.Status)

	require.Len(t, runner.tasks, 1)
	assert.Equal(t, resp.Request.PublicID, runner.tasks[0].RequestID)

	saved, err := reqs.FindByPublicID(context.Background(), resp.Request.PublicID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusOpen, saved.Status)
}

func TestEmergencyCreate_ValidationFailsBeforeSave(t *testing.T) {
	runner := &fakeRunner{}
	svc, reqs := newTestEmergency(runner, &fakeDispatcher{}, nil, fakeVolunteers{})

	tests := []struct {
		name string
		mut  func(r *dto.CreateEmergencyRequest)
		want error
	}{
		{name: "blood group", mut: func(r *dto.CreateEmergencyRequest) { r.BloodGroup = "C+" }, want: errors.InvalidBloodGroup},
		{name: "district", mut: func(r *dto.CreateEmergencyRequest) { r.District = "Mumbai" }, want: errors.InvalidDistrict},
		{name: "urgency", mut: func(r *dto.CreateEmergencyRequest) { r.Urgency = "asap" }, want: errors.InvalidUrgency},
		{name: "contact phone", mut: func(r *dto.CreateEmergencyRequest) { r.ContactPhone = " " }, want: errors.InvalidRequest},
		{name: "contact email", mut: func(r *dto.CreateEmergencyRequest) { r.ContactEmail = "nope" }, want: errors.InvalidEmail},
		{name: "unknown volunteer", mut: func(r *dto.CreateEmergencyRequest) { r.VolunteerID = 99 }, want: errors.DonorNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mut(&req)
			_, err := svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Empty(t, runner.tasks)
	assert.Empty(t, reqs.byID)
}

func TestEmergencyCreate_QueueFull(t *testing.T) {
	runner := &fakeRunner{err: errors.DispatchQueueFull}
	svc, reqs := newTestEmergency(runner, &fakeDispatcher{}, nil, fakeVolunteers{})

	_, err := svc.Create(context.Background(), validRequest())
	assert.ErrorIs(t, err, errors.DispatchQueueFull)
	assert.Len(t, reqs.byID, 1, "request stays saved for a manual broadcast")
}

func TestEmergencyCreate_NoRunner(t *testing.T) {
	svc, reqs := newTestEmergency(nil, &fakeDispatcher{}, nil, fakeVolunteers{})

	_, err := svc.Create(context.Background(), validRequest())
	assert.ErrorIs(t, err, errors.DispatchSubmitFailed)
	assert.Empty(t, reqs.byID)
}

func TestProcessDispatch_DirectContactThenBroadcast(t *testing.T) {
	setupRedis(t)
	config.Cfg.AdminEmail = "admin@nss.example"
	config.Cfg.SummaryTTLHours = 24
	t.Cleanup(func() { config.Cfg.AdminEmail = "" })

	tr := &trace{}
	mailer := &fakeMailer{trace: tr}
	disp := &fakeDispatcher{trace: tr, summary: &notify.Summary{Recipients: 2, SuccessCount: 2, Errors: []notify.RecipientError{}}}
	vols := fakeVolunteers{7: {PublicID: 7, Name: "Kiran", Email: "kiran@nss.example", BloodGroup: model.BloodGroupOPos}}

	svc, reqs := newTestEmergency(&fakeRunner{}, disp, mailer, vols)
	req := &model.EmergencyRequest{
		PublicID:     100,
		BloodGroup:   model.BloodGroupBPos,
		District:     "Hyderabad",
		Urgency:      model.UrgencyHigh,
		ContactName:  "Asha",
		ContactPhone: "+919876543210",
		ContactEmail: "asha@example.com",
		PatientName:  "Ravi",
		VolunteerID:  7,
		Status:       model.RequestStatusOpen,
	}
	require.NoError(t, reqs.Create(context.Background(), req))

	summary, err := svc.ProcessDispatch(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.SuccessCount)

	assert.Equal(t, []string{"mail:admin@nss.example", "mail:kiran@nss.example", "dispatch"}, tr.list())
	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "asha@example.com", mailer.sent[0].ReplyTo)
	assert.Contains(t, mailer.sent[0].HTML, "Kiran")
	assert.True(t, mailer.sent[0].HighPriority)

	require.Len(t, disp.events, 1)
	assert.Equal(t, model.BloodGroupBPos, disp.events[0].BloodGroup)

	cached, err := svc.Summary(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 2, cached.Recipients)
}

func TestProcessDispatch_EmailFailureDoesNotBlockBroadcast(t *testing.T) {
	setupRedis(t)
	config.Cfg.AdminEmail = "admin@nss.example"
	t.Cleanup(func() { config.Cfg.AdminEmail = "" })

	mailer := &fakeMailer{err: stderrors.New("smtp down")}
	disp := &fakeDispatcher{}
	vols := fakeVolunteers{7: {PublicID: 7, Name: "Kiran"}}

	svc, reqs := newTestEmergency(&fakeRunner{}, disp, mailer, vols)
	require.NoError(t, reqs.Create(context.Background(), &model.EmergencyRequest{
		PublicID: 5, BloodGroup: model.BloodGroupAPos, District: "Medak", Urgency: model.UrgencyLow,
		ContactName: "A", ContactPhone: "9876543210", VolunteerID: 7, Status: model.RequestStatusOpen,
	}))

	_, err := svc.ProcessDispatch(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, mailer.sent, 1, "volunteer without email gets no confirmation")
	assert.Len(t, disp.events, 1)
}

func TestProcessDispatch_NotFound(t *testing.T) {
	svc, _ := newTestEmergency(&fakeRunner{}, &fakeDispatcher{}, nil, fakeVolunteers{})
	_, err := svc.ProcessDispatch(context.Background(), 404)
	assert.ErrorIs(t, err, errors.EmergencyNotFound)
}

func TestEmergencySummary_Pending(t *testing.T) {
	setupRedis(t)
	svc, reqs := newTestEmergency(&fakeRunner{}, &fakeDispatcher{}, nil, fakeVolunteers{})
	require.NoError(t, reqs.Create(context.Background(), &model.EmergencyRequest{PublicID: 9, Status: model.RequestStatusOpen}))

	_, err := svc.Summary(context.Background(), 9)
	assert.ErrorIs(t, err, errors.DispatchPending)

	_, err = svc.Summary(context.Background(), 10)
	assert.ErrorIs(t, err, errors.EmergencyNotFound)
}

func TestDispatchCounts_OmitsRecipientDetails(t *testing.T) {
	setupRedis(t)
	config.Cfg.SummaryTTLHours = 24

	disp := &fakeDispatcher{summary: &notify.Summary{
		Recipients:   2,
		SuccessCount: 1,
		FailedCount:  1,
		Outcomes: []notify.Outcome{
			{DonorID: "1", Channel: notify.ChannelSMS, Destination: "+919000000001", MessageID: "sid", Success: true},
			{DonorID: "2", Channel: notify.ChannelSMS, Destination: "+919000000002", Error: "boom"},
		},
		Errors: []notify.RecipientError{
			{DonorID: "2", Channel: notify.ChannelSMS, Destination: "+919000000002", Error: "boom"},
		},
	}}
	svc, reqs := newTestEmergency(&fakeRunner{}, disp, nil, fakeVolunteers{})
	require.NoError(t, reqs.Create(context.Background(), &model.EmergencyRequest{PublicID: 5, Status: model.RequestStatusOpen}))

	_, err := svc.ProcessDispatch(context.Background(), 5)
	require.NoError(t, err)

	counts, err := svc.DispatchCounts(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, dto.DispatchCountsResponse{Recipients: 2, SuccessCount: 1, FailedCount: 1}, *counts)

	body, err := json.Marshal(counts)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "destination")
	assert.NotContains(t, string(body), "donor_id")
	assert.NotContains(t, string(body), "+91900000000")

	// 管理员仍可看到明细
	full, err := svc.Summary(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, full.Outcomes, 2)
	assert.Equal(t, "+919000000001", full.Outcomes[0].Destination)

	_, err = svc.DispatchCounts(context.Background(), 6)
	assert.ErrorIs(t, err, errors.EmergencyNotFound)
}

func TestDispatchCounts_ResolveFailed(t *testing.T) {
	setupRedis(t)
	disp := &fakeDispatcher{summary: &notify.Summary{ResolveError: "db down", Errors: []notify.RecipientError{}}}
	svc, reqs := newTestEmergency(&fakeRunner{}, disp, nil, fakeVolunteers{})
	require.NoError(t, reqs.Create(context.Background(), &model.EmergencyRequest{PublicID: 8, Status: model.RequestStatusOpen}))

	_, err := svc.ProcessDispatch(context.Background(), 8)
	require.NoError(t, err)

	counts, err := svc.DispatchCounts(context.Background(), 8)
	require.NoError(t, err)
	assert.True(t, counts.ResolveFailed)
	assert.Zero(t, counts.Recipients)
}

func TestEmergencyListAndUpdateStatus(t *testing.T) {
	svc, reqs := newTestEmergency(&fakeRunner{}, &fakeDispatcher{}, nil, fakeVolunteers{})
	ctx := context.Background()
	require.NoError(t, reqs.Create(ctx, &model.EmergencyRequest{PublicID: 1, Status: model.RequestStatusOpen}))
	require.NoError(t, reqs.Create(ctx, &model.EmergencyRequest{PublicID: 2, Status: model.RequestStatusClosed}))

	open, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, int64(1), open[0].PublicID)

	_, err = svc.List(ctx, "pending")
	assert.ErrorIs(t, err, errors.InvalidRequestStatus)

	require.NoError(t, svc.UpdateStatus(ctx, 1, "Fulfilled"))
	open, err = svc.List(ctx, "open")
	require.NoError(t, err)
	assert.Empty(t, open)

	assert.ErrorIs(t, svc.UpdateStatus(ctx, 1, "done"), errors.InvalidRequestStatus)
	assert.ErrorIs(t, svc.UpdateStatus(ctx, 3, "closed"), errors.EmergencyNotFound)
}
