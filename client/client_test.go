package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"familytree/domain"
	"familytree/middleware"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type recordingNavigator struct {
	paths []string
}

func (n *recordingNavigator) Redirect(path string) {
	n.paths = append(n.paths, path)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v interface{}) {
	t.Helper()
	body, err := sonic.Marshal(v)
	require.NoError(t, err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recordingNavigator) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	session := NewSession(nil)
	require.NoError(t, session.SignIn("tok-123", Profile{ID: 7, Name: "asha", IsPaid: true}))

	logger, _ := test.NewNullLogger()
	nav := &recordingNavigator{}
	return New(srv.URL+"/api", session, nav, logger), nav
}

func TestGetGraphSendsBearerAndDecodes(t *testing.T) {
	var auth string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.Equal(t, "/api/family-tree", r.URL.Path)
		writeJSON(t, w, http.StatusOK, domain.Response{
			Success: true,
			Data: domain.FamilyGraph{
				Nodes: []domain.TreeNode{{ID: "n1", Position: domain.Position{X: 100, Y: 50}, Data: domain.NodeData{Name: "Asha"}}},
			},
		})
	})

	graph, err := c.GetGraph(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer tok-123", auth)
	require.Len(t, graph.Nodes, 1)
	require.Equal(t, "Asha", graph.Nodes[0].Data.Name)
	require.NotNil(t, graph.Edges)
}

func TestUnauthorizedAndPaymentRequiredRedirect(t *testing.T) {
	status := int32(http.StatusUnauthorized)
	c, nav := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, int(atomic.LoadInt32(&status)), domain.Response{Message: "nope"})
	})

	_, err := c.GetGraph(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)

	atomic.StoreInt32(&status, http.StatusPaymentRequired)
	_, err = c.DeleteNode(context.Background(), "n1")
	require.ErrorIs(t, err, ErrPaymentRequired)

	require.Equal(t, []string{LoginPath, UpgradePath}, nav.paths)
}

func TestAPIErrorMessageAndFallback(t *testing.T) {
	var withMessage atomic.Bool
	withMessage.Store(true)
	c, nav := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if withMessage.Load() {
			writeJSON(t, w, http.StatusBadRequest, domain.Response{Message: "Name is required", Error: "validation failed"})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "<html>boom</html>")
	})

	_, err := c.GetMember(context.Background(), "m1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Name is required", err.Error())
	require.Equal(t, "validation failed", apiErr.Detail)
	require.Equal(t, http.StatusBadRequest, StatusOf(err))

	withMessage.Store(false)
	_, err = c.GetForest(context.Background())
	require.EqualError(t, err, "Failed to load tree")
	require.Equal(t, http.StatusInternalServerError, StatusOf(err))
	require.Empty(t, nav.paths)
}

func TestCreateMemberSendsMultipart(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "Dev", r.FormValue("name"))
		require.Equal(t, "son", r.FormValue("relation"))
		require.Equal(t, "other", r.FormValue("gender"))
		require.Equal(t, "Pune", r.FormValue("address_city"))
		_, hasDOB := r.MultipartForm.Value["dob"]
		require.False(t, hasDOB)

		file, header, err := r.FormFile("photo")
		require.NoError(t, err)
		defer file.Close()
		content, _ := io.ReadAll(file)
		require.Equal(t, "dev.png", header.Filename)
		require.Equal(t, []byte("png-bytes"), content)

		writeJSON(t, w, http.StatusCreated, domain.Response{
			Success: true,
			Data:    domain.Member{MemberID: "m2", Name: "Dev"},
		})
	})

	member, err := c.CreateMember(context.Background(), &domain.MemberForm{
		Name:     "Dev",
		Relation: "son",
		Address:  domain.Address{City: "Pune"},
		Photo:    &domain.PhotoFile{Name: "dev.png", Content: []byte("png-bytes")},
	})
	require.NoError(t, err)
	require.Equal(t, "m2", member.MemberID)
}

func TestValidationHappensBeforeNetwork(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	})

	_, err := c.CreateMember(context.Background(), &domain.MemberForm{Name: "   "})
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = c.CreateNode(context.Background(), &domain.NodeForm{Name: "Asha", Gender: "robot"})
	require.ErrorIs(t, err, domain.ErrValidation)
	require.Zero(t, atomic.LoadInt32(&hits))
}

func TestCancelledContextSkipsRequest(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetGraph(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, atomic.LoadInt32(&hits))
}

func TestClearAllSendsPhrase(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		var req domain.ConfirmRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, sonic.Unmarshal(body, &req))
		require.Equal(t, domain.ClearAllPhrase, req.Confirm)
		writeJSON(t, w, http.StatusOK, domain.Response{
			Success: true,
			Data:    domain.DeleteSummary{DeletedNodes: 2, DeletedConnections: 1},
		})
	})

	summary, err := c.ClearAll(context.Background(), domain.ClearAllPhrase)
	require.NoError(t, err)
	require.Equal(t, int64(2), summary.DeletedNodes)
}

func TestFileSessionStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	s := NewSession(FileSessionStore{Path: path})
	require.NoError(t, s.Init())
	require.Empty(t, s.Token())

	require.NoError(t, s.SignIn("tok", Profile{ID: 3, Name: "ravi", Email: "r@example.com", IsPaid: true}))

	restored := NewSession(FileSessionStore{Path: path})
	require.NoError(t, restored.Init())
	require.Equal(t, "tok", restored.Token())
	profile, ok := restored.Profile()
	require.True(t, ok)
	require.Equal(t, "r@example.com", profile.Email)

	require.NoError(t, restored.SignOut())
	again := NewSession(FileSessionStore{Path: path})
	require.NoError(t, again.Init())
	require.Empty(t, again.Token())
	_, ok = again.Profile()
	require.False(t, ok)
}

func TestProfileFromToken(t *testing.T) {
	t.Setenv("BYTE_KEY", "secret")
	token, err := middleware.GenerateJWT(42, "asha", true)
	require.NoError(t, err)

	profile, err := ProfileFromToken(token)
	require.NoError(t, err)
	require.Equal(t, Profile{ID: 42, Name: "asha", IsPaid: true}, profile)

	_, err = ProfileFromToken("not-a-token")
	require.Error(t, err)
}

func TestGetForestWithoutProfileRedirects(t *testing.T) {
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	nav := &recordingNavigator{}
	c := New("http://127.0.0.1:1/api", NewSession(nil), nav, logger)

	_, err := c.GetForest(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, []string{LoginPath}, nav.paths)
}
