package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/careapp/carecoord/internal/models"
	"github.com/careapp/carecoord/internal/services"
)

type fakeInviteStore struct {
	InviteCodeStore

	generated   []services.GenerateInviteInput
	generateErr error
	valid       bool
	validateErr error
	used        bool
	useCalls    int
	revoked     bool
	codes       []models.InviteCode
}

func (f *fakeInviteStore) Generate(_ context.Context, in services.GenerateInviteInput) (string, error) {
	f.generated = append(f.generated, in)
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return "ABC123", nil
}

func (f *fakeInviteStore) Validate(context.Context, string) (bool, error) {
	return f.valid, f.validateErr
}

func (f *fakeInviteStore) Use(context.Context, string, string) (bool, error) {
	f.useCalls++
	return f.used, nil
}

func (f *fakeInviteStore) ListByCreator(context.Context, string) ([]models.InviteCode, error) {
	return f.codes, nil
}

func (f *fakeInviteStore) Revoke(context.Context, string) (bool, error) {
	return f.revoked, nil
}

func (f *fakeInviteStore) ActiveForPatient(context.Context, string) ([]models.InviteCode, error) {
	return f.codes, nil
}

func validInviteBody() map[string]string {
	return map[string]string{
		"createdBy":      "fm-1",
		"createdByType":  "FM",
		"targetType":     "MANAGER",
		"patientId":      "patient-1",
		"organizationId": "org-1",
	}
}

func TestInviteHandlerGenerate(t *testing.T) {
	store := &fakeInviteStore{}
	handler := NewInviteHandler(store)

	env := serve(t, http.MethodPost, "/api/invite/generate", handler.Generate, "/api/invite/generate", validInviteBody())
	require.Equal(t, "200", env.Code)
	require.Equal(t, "Invite code generated successfully!", env.Msg)
	require.Equal(t, "ABC123", decodeData[string](t, env))
	require.Len(t, store.generated, 1)
	require.Equal(t, services.GenerateInviteInput{
		CreatedBy:      "fm-1",
		CreatedByType:  "FM",
		TargetType:     "MANAGER",
		PatientID:      "patient-1",
		OrganizationID: "org-1",
	}, store.generated[0])
}

func TestInviteHandlerGenerateValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(map[string]string)
		msg    string
	}{
		{"missing creator", func(b map[string]string) { delete(b, "createdBy") }, "Missing required fields!"},
		{"missing patient", func(b map[string]string) { delete(b, "patientId") }, "Missing required fields!"},
		{"blank organization", func(b map[string]string) { b["organizationId"] = "  " }, "Missing required fields!"},
		{"missing creator type", func(b map[string]string) { delete(b, "createdByType") }, "Missing required fields!"},
		{"blank creator type", func(b map[string]string) { b["createdByType"] = " " }, "Missing required fields!"},
		{"missing target type", func(b map[string]string) { delete(b, "targetType") }, "Missing required fields!"},
		{"blank target type", func(b map[string]string) { b["targetType"] = "" }, "Missing required fields!"},
		{"invalid creator type", func(b map[string]string) { b["createdByType"] = "WORKER" }, "Invalid creator type! Must be FM, POA, or MANAGER"},
		{"invalid target type", func(b map[string]string) { b["targetType"] = "FM" }, "Invalid target type! Must be MANAGER or WORKER"},
		{"missing wins over enum", func(b map[string]string) {
			b["targetType"] = "FM"
			delete(b, "createdBy")
		}, "Missing required fields!"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeInviteStore{}
			body := validInviteBody()
			tc.mutate(body)

			env := serve(t, http.MethodPost, "/gen", NewInviteHandler(store).Generate, "/gen", body)
			requireFailure(t, env, "400", tc.msg)
			require.Empty(t, store.generated)
		})
	}
}

func TestInviteHandlerGenerateStoreFailure(t *testing.T) {
	store := &fakeInviteStore{generateErr: errDB}
	env := serve(t, http.MethodPost, "/gen", NewInviteHandler(store).Generate, "/gen", validInviteBody())
	requireFailure(t, env, "500", "Failed to generate invite code: DB Error")
}

func TestInviteHandlerUse(t *testing.T) {
	body := map[string]string{"code": "INVALID", "usedBy": "user-1"}

	t.Run("missing fields", func(t *testing.T) {
		store := &fakeInviteStore{valid: true}
		env := serve(t, http.MethodPost, "/use", NewInviteHandler(store).Use, "/use", map[string]string{"code": "X"})
		requireFailure(t, env, "400", "Code and usedBy are required!")
		require.Zero(t, store.useCalls)
	})

	t.Run("invalid code never redeems", func(t *testing.T) {
		store := &fakeInviteStore{valid: false, used: true}
		env := serve(t, http.MethodPost, "/use", NewInviteHandler(store).Use, "/use", body)
		requireFailure(t, env, "400", "Invalid or expired invite code!")
		require.Zero(t, store.useCalls)
	})

	t.Run("redeem rejected", func(t *testing.T) {
		store := &fakeInviteStore{valid: true, used: false}
		env := serve(t, http.MethodPost, "/use", NewInviteHandler(store).Use, "/use", body)
		requireFailure(t, env, "400",
			"Failed to use invite code! The token type may not match your user role, or the token may be invalid.")
		require.Equal(t, 1, store.useCalls)
	})

	t.Run("redeemed", func(t *testing.T) {
		store := &fakeInviteStore{valid: true, used: true}
		env := serve(t, http.MethodPost, "/use", NewInviteHandler(store).Use, "/use", body)
		require.Equal(t, "200", env.Code)
		require.Equal(t, "Invite code used successfully!", env.Msg)
		require.Equal(t, "Access granted!", decodeData[string](t, env))
	})
}

func TestInviteHandlerRevoke(t *testing.T) {
	env := serve(t, http.MethodDelete, "/api/invite/:codeId", NewInviteHandler(&fakeInviteStore{revoked: true}).Revoke, "/api/invite/c1", nil)
	require.Equal(t, "Invite code revoked successfully!", env.Msg)
	require.Equal(t, "Invite code revoked!", decodeData[string](t, env))

	env = serve(t, http.MethodDelete, "/api/invite/:codeId", NewInviteHandler(&fakeInviteStore{}).Revoke, "/api/invite/c1", nil)
	requireFailure(t, env, "400", "Failed to revoke invite code!")
}

func TestInviteHandlerListings(t *testing.T) {
	store := &fakeInviteStore{codes: []models.InviteCode{{Code: "ABCD1234"}, {Code: "EFGH5678"}}}
	handler := NewInviteHandler(store)

	env := serve(t, http.MethodGet, "/my-codes", handler.MyCodes, "/my-codes?creatorId=fm-1", nil)
	require.Equal(t, "Invite codes retrieved successfully!", env.Msg)
	require.Len(t, decodeData[[]models.InviteCode](t, env), 2)

	env = serve(t, http.MethodGet, "/my-codes", handler.MyCodes, "/my-codes", nil)
	requireFailure(t, env, "400", "creatorId is required!")

	env = serve(t, http.MethodGet, "/patient/:patientId", handler.ActiveForPatient, "/patient/p1", nil)
	require.Equal(t, "Active invite codes retrieved successfully!", env.Msg)
}
