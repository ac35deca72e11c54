package delivery

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"familytree/config"
	"familytree/domain"
	"familytree/middleware"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

type fakeMembers struct {
	lastForm  *domain.MemberForm
	lastPhoto *multipart.FileHeader
	forestFor int
}

func (f *fakeMembers) CreateMember(ctx context.Context, userID int, form *domain.MemberForm, photo *multipart.FileHeader) (*domain.Member, error) {
	f.lastForm, f.lastPhoto = form, photo
	if form.Name == "" {
		return nil, domain.ErrValidation
	}
	return &domain.Member{MemberID: "m1", UserID: userID, Name: form.Name, Relation: form.Relation}, nil
}

func (f *fakeMembers) UpdateMember(ctx context.Context, userID int, memberID string, form *domain.MemberForm, photo *multipart.FileHeader) (*domain.Member, error) {
	f.lastForm = form
	if form.ParentID == memberID {
		return nil, domain.ErrAncestorCycle
	}
	return &domain.Member{MemberID: memberID, Name: form.Name}, nil
}

func (f *fakeMembers) GetMemberByID(ctx context.Context, userID int, memberID string) (*domain.Member, error) {
	if memberID != "m1" {
		return nil, domain.ErrNotFound
	}
	return &domain.Member{MemberID: "m1", Name: "Asha"}, nil
}

func (f *fakeMembers) GetFamilyForest(ctx context.Context, userID int) ([]domain.Member, error) {
	f.forestFor = userID
	return []domain.Member{{MemberID: "m1", Name: "Asha", Children: []domain.Member{}}}, nil
}

func (f *fakeMembers) DeleteMember(ctx context.Context, userID int, memberID string) (int64, error) {
	return 3, nil
}

type fakeGraph struct {
	lastForm  *domain.NodeForm
	saved     *domain.FamilyGraph
	confirmed string
}

func (f *fakeGraph) GetGraph(ctx context.Context, userID int) (*domain.FamilyGraph, error) {
	return &domain.FamilyGraph{Nodes: []domain.TreeNode{{ID: "n1"}}, Edges: []domain.TreeEdge{}}, nil
}

func (f *fakeGraph) CreateNode(ctx context.Context, userID int, form *domain.NodeForm, photo *multipart.FileHeader) (*domain.TreeNode, error) {
	f.lastForm = form
	return &domain.TreeNode{ID: "n2", Data: form.NodeData()}, nil
}

func (f *fakeGraph) UpdateNode(ctx context.Context, userID int, nodeID string, form *domain.NodeForm, photo *multipart.FileHeader) (*domain.TreeNode, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeGraph) SaveGraph(ctx context.Context, userID int, graph *domain.FamilyGraph) error {
	f.saved = graph
	return nil
}

func (f *fakeGraph) DeleteNode(ctx context.Context, userID int, nodeID string) (*domain.DeleteSummary, error) {
	return &domain.DeleteSummary{DeletedNodes: 1, DeletedConnections: 2}, nil
}

func (f *fakeGraph) ClearAll(ctx context.Context, userID int, confirm string) (*domain.DeleteSummary, error) {
	f.confirmed = confirm
	if confirm != domain.ClearAllPhrase {
		return nil, domain.ErrInvalidPhrase
	}
	return &domain.DeleteSummary{DeletedNodes: 4}, nil
}

func (f *fakeGraph) WipeAll(ctx context.Context, confirm string) (*domain.DeleteSummary, error) {
	f.confirmed = confirm
	if confirm != domain.WipeAllPhrase {
		return nil, domain.ErrInvalidPhrase
	}
	return &domain.DeleteSummary{}, nil
}

func newTestApp(t *testing.T) (*fiber.App, *fakeMembers, *fakeGraph) {
	t.Helper()
	t.Setenv("BYTE_KEY", "test-secret")

	members, graph := &fakeMembers{}, &fakeGraph{}
	app := fiber.New(config.GetFiberConfig())
	api := app.Group("/api")
	NewMemberDelivery(api, members)
	NewFamilyGraphDelivery(api, graph)
	return app, members, graph
}

func bearer(t *testing.T, userID int, paid bool) string {
	t.Helper()
	token, err := middleware.GenerateJWT(userID, "asha", paid)
	require.NoError(t, err)
	return "Bearer " + token
}

type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Error   string      `json:"error"`
	Data    interface{} `json:"data"`
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, sonic.Unmarshal(body, &env), string(body))
	return resp.StatusCode, env
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, photo []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if photo != nil {
		part, err := w.CreateFormFile("photo", "me.png")
		require.NoError(t, err)
		_, err = part.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func TestRoutesRequireToken(t *testing.T) {
	app, _, _ := newTestApp(t)

	status, env := do(t, app, httptest.NewRequest(http.MethodGet, "/api/family-tree", nil))
	require.Equal(t, fiber.StatusUnauthorized, status)
	require.False(t, env.Success)

	req := httptest.NewRequest(http.MethodGet, "/api/family-tree", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer garbage")
	status, _ = do(t, app, req)
	require.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRoutesRequirePaidAccount(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/family/7", nil)
	req.Header.Set(fiber.HeaderAuthorization, bearer(t, 7, false))
	status, env := do(t, app, req)
	require.Equal(t, fiber.StatusPaymentRequired, status)
	require.Equal(t, "An active subscription is required", env.Message)
}

func TestCreateMemberParsesMultipart(t *testing.T) {
	app, members, _ := newTestApp(t)

	req := multipartRequest(t, http.MethodPost, "/api/family", map[string]string{
		"name":          "Dev",
		"relation":      "son",
		"parentId":      "asha",
		"address_city":  "Pune",
		"address_place": "Kothrud",
	}, []byte("\x89PNG\r\n\x1a\n"))
	req.Header.Set(fiber.HeaderAuthorization, bearer(t, 7, true))

	status, env := do(t, app, req)
	require.Equal(t, fiber.StatusCreated, status)
	require.True(t, env.Success)
	require.Equal(t, "Dev", env.Data.(map[string]interface{})["name"])

	require.Equal(t, "asha", members.lastForm.ParentID)
	require.Equal(t, "Pune", members.lastForm.Address.City)
	require.Equal(t, "Kothrud", members.lastForm.Address.Place)
	require.NotNil(t, members.lastPhoto)
	require.Equal(t, "me.png", members.lastPhoto.Filename)
}

func TestMemberErrorsMapToStatus(t *testing.T) {
	app, _, _ := newTestApp(t)
	auth := bearer(t, 7, true)

	req := multipartRequest(t, http.MethodPost, "/api/family", map[string]string{"relation": "son"}, nil)
	req.Header.Set(fiber.HeaderAuthorization, auth)
	status, env := do(t, app, req)
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, "Failed to create member", env.Message)

	req = httptest.NewRequest(http.MethodGet, "/api/family/member/ghost", nil)
	req.Header.Set(fiber.HeaderAuthorization, auth)
	status, _ = do(t, app, req)
	require.Equal(t, fiber.StatusNotFound, status)

	req = multipartRequest(t, http.MethodPut, "/api/family/m1", map[string]string{"name": "A", "parentId": "m1"}, nil)
	req.Header.Set(fiber.HeaderAuthorization, auth)
	status, env = do(t, app, req)
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, domain.ErrAncestorCycle.Error(), env.Error)
}

func TestForestIsOwnerOnly(t *testing.T) {
	app, members, _ := newTestApp(t)
	auth := bearer(t, 7, true)

	req := httptest.NewRequest(http.MethodGet, "/api/family/8", nil)
	req.Header.Set(fiber.HeaderAuthorization, auth)
	status, _ := do(t, app, req)
	require.Equal(t, fiber.StatusForbidden, status)

	req = httptest.NewRequest(http.MethodGet, "/api/family/7", nil)
	req.Header.Set(fiber.HeaderAuthorization, auth)
	status, env := do(t, app, req)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, env.Data, 1)
	require.Equal(t, 7, members.forestFor)
}

func TestCreateNodeReadsPosition(t *testing.T) {
	app, _, graph := newTestApp(t)

	req := multipartRequest(t, http.MethodPost, "/api/family-tree/node", map[string]string{
		"name":      "Mira",
		"positionX": "350",
		"positionY": "50",
	}, nil)
	req.Header.Set(fiber.HeaderAuthorization, bearer(t, 7, true))
	status, _ := do(t, app, req)
	require.Equal(t, fiber.StatusCreated, status)
	require.Equal(t, &domain.Position{X: 350, Y: 50}, graph.lastForm.Position)

	req = multipartRequest(t, http.MethodPost, "/api/family-tree/node", map[string]string{
		"name":      "Mira",
		"positionX": "left",
	}, nil)
	req.Header.Set(fiber.HeaderAuthorization, bearer(t, 7, true))
	status, _ = do(t, app, req)
	require.Equal(t, fiber.StatusBadRequest, status)
}

func TestSaveGraphDecodesSnapshot(t *testing.T) {
	app, _, graph := newTestApp(t)

	req := jsonRequest(http.MethodPut, "/api/family-tree/save",
		`{"nodes":[{"id":"a","position":{"x":1,"y":2},"data":{"name":"A"}}],"edges":[{"id":"e","source":"a","target":"a","data":{"relationshipType":"sibling"}}]}`)
	req.Header.Set(fiber.HeaderAuthorization, bearer(t, 7, true))
	status, _ := do(t, app, req)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, graph.saved.Nodes, 1)
	require.Equal(t, domain.Position{X: 1, Y: 2}, graph.saved.Nodes[0].Position)
	require.Equal(t, domain.RelationSibling, graph.saved.Edges[0].Data.RelationshipType)
}

func TestBulkDeletesCheckPhrase(t *testing.T) {
	app, _, graph := newTestApp(t)
	auth := bearer(t, 7, true)

	req := jsonRequest(http.MethodDelete, "/api/family-tree/clear-all", `{"confirm":"delete all"}`)
	req.Header.Set(fiber.HeaderAuthorization, auth)
	status, _ := do(t, app, req)
	require.Equal(t, fiber.StatusBadRequest, status)

	req = jsonRequest(http.MethodDelete, "/api/family-tree/clear-all", `{"confirm":"DELETE ALL"}`)
	req.Header.Set(fiber.HeaderAuthorization, auth)
	status, env := do(t, app, req)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "Cleared 4 node(s) and 0 connection(s)", env.Message)

	req = jsonRequest(http.MethodPost, "/api/family-tree/nuclear-delete", `{"confirm":"NUCLEAR DELETE"}`)
	req.Header.Set(fiber.HeaderAuthorization, auth)
	status, _ = do(t, app, req)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, domain.WipeAllPhrase, graph.confirmed)
}

func TestDeleteNodeReportsSummary(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/family-tree/node/n1", nil)
	req.Header.Set(fiber.HeaderAuthorization, bearer(t, 7, true))
	status, env := do(t, app, req)
	require.Equal(t, fiber.StatusOK, status)
	data := env.Data.(map[string]interface{})
	require.EqualValues(t, 2, data["deletedConnections"])
}
