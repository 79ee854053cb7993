package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	mw "github.com/paladarnegro/plantel/middleware"
	"github.com/paladarnegro/plantel/models"
	"github.com/paladarnegro/plantel/roster"
	"github.com/paladarnegro/plantel/roster/rostertest"
	"github.com/paladarnegro/plantel/web"
)

var testKey = []byte("handlers-test-key")

type recordingNotifier struct {
	texts []string
	err   error
}

func (r *recordingNotifier) Notify(_ context.Context, text string) error {
	r.texts = append(r.texts, text)
	return r.err
}

type fixture struct {
	e      *echo.Echo
	repo   *rostertest.Memory
	notes  *recordingNotifier
	admin  string
	member string
	orphan string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := rostertest.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("secreto"), bcrypt.MinCost)
	require.NoError(t, err)
	adminID := repo.AddUser("dt@club.com", string(hash), true, true)
	memberID := repo.AddUser("socio@club.com", string(hash), true, false)
	orphanID := repo.AddUser("nuevo@club.com", string(hash), false, false)

	renderer, err := web.New()
	require.NoError(t, err)

	notes := &recordingNotifier{}
	h := New(roster.New(repo), repo, notes, testKey, false)
	h.now = func() time.Time { return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC) }

	e := echo.New()
	e.Renderer = renderer
	e.HTTPErrorHandler = ErrorHandler
	e.Use(mw.Session(testKey))
	h.Routes(e)

	f := &fixture{e: e, repo: repo, notes: notes}
	f.admin = f.token(t, adminID, "dt@club.com")
	f.member = f.token(t, memberID, "socio@club.com")
	f.orphan = f.token(t, orphanID, "nuevo@club.com")
	return f
}

func (f *fixture) token(t *testing.T, id uuid.UUID, email string) string {
	t.Helper()
	tok, _, err := mw.NewToken(testKey, id, email, time.Hour)
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) addPlayer(name, surname, birthday string, cats ...string) int {
	b, _ := time.Parse(roster.DateLayout, birthday)
	return f.repo.AddPlayer(models.Player{Name: name, Surname: surname, Position: 5, Birthday: b}, cats...)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

const newPlayer = `{"name":"Santiago","surname":"Montiel","position":4,"birthday":"2008-04-12","categories":["Cuarta","quinta"]}`

func TestAdminEndpointsRequireAdmin(t *testing.T) {
	f := newFixture(t)
	id := f.addPlayer("Lucas", "González", "2010-02-01", "sexta")
	player := "/api/players/" + strconv.Itoa(id)

	routes := []struct{ method, path, body string }{
		{http.MethodGet, "/api/agents", ""},
		{http.MethodPost, "/api/players", newPlayer},
		{http.MethodPut, player, `{"name":"Otro"}`},
		{http.MethodDelete, player, ""},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			rec := f.do(r.method, r.path, r.body, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "No autorizado – debes iniciar sesión", errorOf(t, rec))

			rec = f.do(r.method, r.path, r.body, "not-a-token")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Error de sesión", errorOf(t, rec))

			rec = f.do(r.method, r.path, r.body, f.member)
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, "Acceso denegado – permisos de admin requeridos", errorOf(t, rec))

			rec = f.do(r.method, r.path, r.body, f.orphan)
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, "Usuario no registrado", errorOf(t, rec))
		})
	}

	p, err := f.repo.GetPlayer(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Lucas", p.Name)
}

func TestCreatePlayer(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/players", newPlayer, f.admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[struct {
		Message string     `json:"message"`
		Player  playerData `json:"player"`
	}](t, rec)
	assert.Equal(t, "Jugador creado exitosamente", resp.Message)
	assert.Equal(t, "Montiel", resp.Player.Surname)
	assert.Equal(t, "2008-04-12", resp.Player.Birthday)
	assert.Equal(t, 17, resp.Player.Age)
	assert.Equal(t, []string{"cuarta", "quinta"}, resp.Player.Categories)
	assert.Len(t, f.notes.texts, 1)
}

func TestCreatePlayerNumericStringPosition(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/players", `{"name":"Santiago","surname":"Montiel","position":"4","birthday":"2008-04-12","categories":["cuarta"]}`, f.admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[struct {
		Player playerData `json:"player"`
	}](t, rec)
	assert.Equal(t, 4, resp.Player.Position)

	rec = f.do(http.MethodPut, "/api/players/"+strconv.Itoa(resp.Player.ID), `{"position":" 11 "}`, f.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = decode[struct {
		Player playerData `json:"player"`
	}](t, rec)
	assert.Equal(t, 11, resp.Player.Position)
}

func TestCreatePlayerValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"no categories", `{"name":"a","surname":"b","position":1,"birthday":"2010-01-01"}`, "Faltan campos requeridos"},
		{"empty categories", `{"name":"a","surname":"b","position":1,"birthday":"2010-01-01","categories":[]}`, "Faltan campos requeridos"},
		{"categories not an array", `{"name":"a","surname":"b","position":1,"birthday":"2010-01-01","categories":"cuarta"}`, "Faltan campos requeridos"},
		{"unknown category", `{"name":"a","surname":"b","position":1,"birthday":"2010-01-01","categories":["cuarta","primera"]}`, "Categorías no encontradas: primera"},
		{"blank category", `{"name":"a","surname":"b","position":1,"birthday":"2010-01-01","categories":[""]}`, "Categorías no encontradas"},
		{"bad birthday", `{"name":"a","surname":"b","position":1,"birthday":"01/01/2010","categories":["cuarta"]}`, "birthday debe tener el formato AAAA-MM-DD"},
		{"unknown agent", `{"name":"a","surname":"b","position":1,"birthday":"2010-01-01","categories":["cuarta"],"agent_id":999}`, "Representante no encontrado"},
		{"malformed body", `{"name":`, "Cuerpo de solicitud inválido"},
		{"non-numeric position", `{"name":"a","surname":"b","position":"arquero","birthday":"2010-01-01","categories":["cuarta"]}`, "position debe ser un número"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/players", tt.body, f.admin)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, errorOf(t, rec), tt.want)
		})
	}
	assert.Empty(t, f.notes.texts)
}

func TestUpdatePlayer(t *testing.T) {
	f := newFixture(t)
	id := f.addPlayer("Lucas", "González", "2010-02-01", "sexta", "septima")
	path := "/api/players/" + strconv.Itoa(id)

	t.Run("unknown category leaves links untouched", func(t *testing.T) {
		rec := f.do(http.MethodPut, path, `{"name":"Luca","categories":["sexta","inexistente"]}`, f.admin)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Categorías no encontradas: inexistente", errorOf(t, rec))
		assert.Equal(t, []string{"sexta", "septima"}, f.repo.CategoryNames(id))

		p, err := f.repo.GetPlayer(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "Lucas", p.Name)
	})

	t.Run("blank categories leave links untouched", func(t *testing.T) {
		rec := f.do(http.MethodPut, path, `{"categories":[""," "]}`, f.admin)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Categorías no encontradas: ", errorOf(t, rec))
		assert.Equal(t, []string{"sexta", "septima"}, f.repo.CategoryNames(id))
	})

	t.Run("categories must be an array", func(t *testing.T) {
		rec := f.do(http.MethodPut, path, `{"categories":"sexta"}`, f.admin)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "categories debe ser un array", errorOf(t, rec))
	})

	t.Run("partial update keeps categories", func(t *testing.T) {
		rec := f.do(http.MethodPut, path, `{"id":1,"position":9,"categories":null}`, f.admin)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[struct {
			Message string     `json:"message"`
			Player  playerData `json:"player"`
		}](t, rec)
		assert.Equal(t, "Jugador actualizado exitosamente", resp.Message)
		assert.Equal(t, id, resp.Player.ID)
		assert.Equal(t, 9, resp.Player.Position)
		assert.Equal(t, []string{"sexta", "septima"}, resp.Player.Categories)
	})

	t.Run("replaces categories", func(t *testing.T) {
		rec := f.do(http.MethodPut, path, `{"categories":["Séptima","octava"]}`, f.admin)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"septima", "octava"}, f.repo.CategoryNames(id))
	})

	t.Run("empty array clears categories", func(t *testing.T) {
		rec := f.do(http.MethodPut, path, `{"categories":[]}`, f.admin)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, f.repo.CategoryNames(id))
	})

	t.Run("unknown player", func(t *testing.T) {
		rec := f.do(http.MethodPut, "/api/players/9999", `{"name":"x"}`, f.admin)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeletePlayerRemovesFromLists(t *testing.T) {
	f := newFixture(t)
	id := f.addPlayer("Lucas", "González", "2010-02-01", "sexta")
	f.addPlayer("Tomás", "Pérez", "2010-07-20", "sexta")

	var list []playerData
	list = decode[[]playerData](t, f.do(http.MethodGet, "/api/players/year/2010", "", ""))
	assert.Len(t, list, 2)

	rec := f.do(http.MethodDelete, "/api/players/"+strconv.Itoa(id), "", f.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Jugador eliminado exitosamente", decode[map[string]string](t, rec)["message"])

	list = decode[[]playerData](t, f.do(http.MethodGet, "/api/players/year/2010", "", ""))
	require.Len(t, list, 1)
	assert.Equal(t, "Pérez", list[0].Surname)

	list = decode[[]playerData](t, f.do(http.MethodGet, "/api/players/category/sexta", "", ""))
	require.Len(t, list, 1)
	assert.Equal(t, "Pérez", list[0].Surname)

	rec = f.do(http.MethodDelete, "/api/players/"+strconv.Itoa(id), "", f.admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Jugador no encontrado", errorOf(t, rec))
}

func TestPublicQueries(t *testing.T) {
	f := newFixture(t)
	f.addPlayer("Lucas", "González", "2010-02-01", "sexta")

	tests := []struct {
		name string
		path string
		code int
		want string
	}{
		{"invalid id", "/api/players/abc", http.StatusBadRequest, "ID de jugador inválido"},
		{"missing player", "/api/players/9999", http.StatusNotFound, "Jugador no encontrado"},
		{"invalid year", "/api/players/year/10", http.StatusBadRequest, "Año inválido"},
		{"unknown category", "/api/players/category/primera", http.StatusNotFound, "Categoría no encontrada"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodGet, tt.path, "", "")
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.want, errorOf(t, rec))
		})
	}

	rec := f.do(http.MethodGet, "/api/categories", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Category](t, rec), len(models.DefaultCategories))

	rec = f.do(http.MethodGet, "/api/players/category/SEXTA", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]playerData](t, rec), 1)
}

func TestStorageFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	f.repo.Fail["ListCategories"] = errors.New("connection reset")

	rec := f.do(http.MethodGet, "/api/categories", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error interno del servidor", errorOf(t, rec))
}

func TestNotificationFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.notes.err = errors.New("telegram down")

	rec := f.do(http.MethodPost, "/api/players", newPlayer, f.admin)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, f.notes.texts, 1)
}

func TestSignin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/auth/signin", `{"email":"DT@club.com ","password":"secreto"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[map[string]string](t, rec)["token"]
	assert.NotEmpty(t, token)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, mw.TokenCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	rec = f.do(http.MethodGet, "/api/auth/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, "dt@club.com", me["email"])
	assert.Equal(t, true, me["isAdmin"])

	rec = f.do(http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	for _, body := range []string{
		`{"email":"dt@club.com","password":"wrong"}`,
		`{"email":"nadie@club.com","password":"secreto"}`,
		`{"email":"","password":""}`,
	} {
		rec = f.do(http.MethodPost, "/api/auth/signin", body, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, body)
		assert.Equal(t, "Email o contraseña incorrectos", errorOf(t, rec))
	}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
