package endpoint

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/TurahWilson/TubesIAE/dashboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage_RequiresSession(t *testing.T) {
	env := setupDashboard(t)

	w := env.get("/patients", "", acceptHTML)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = env.get("/patients", "", acceptJSON)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, env.api.CallsTo(http.MethodGet, "/patients/patients"))
}

func TestPage_UnknownPage(t *testing.T) {
	env := setupDashboard(t)
	cookie := env.login(t, adminEmail)

	w := env.get("/pharmacy", cookie, acceptHTML)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page not found")
}

func TestPage_MarksActiveNavigation(t *testing.T) {
	env := setupDashboard(t)
	cookie := env.login(t, adminEmail)

	w := env.get("/doctors", cookie, acceptHTML)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<a href="/doctors" class="active" aria-current="page">Doctors</a>`)
	assert.Equal(t, 1, strings.Count(body, `class="active"`))
}

func TestPage_AddFormOnlyForAdmin(t *testing.T) {
	env := setupDashboard(t)

	admin := env.get("/patients", env.login(t, adminEmail), acceptHTML)
	require.Equal(t, http.StatusOK, admin.Code)
	assert.Contains(t, admin.Body.String(), `class="add-form"`)

	for _, page := range []string{"patients", "doctors", "records", "prescriptions"} {
		w := env.get("/"+page, env.login(t, staffEmail), acceptHTML)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), `class="add-form"`, page)
		assert.NotContains(t, w.Body.String(), `action="/`+page+`" class`, page)
	}
}

func TestPage_RemoteFailureKeepsShell(t *testing.T) {
	env := setupDashboard(t)
	cookie := env.login(t, adminEmail)
	env.api.Close()

	w := env.get("/patients", cookie, acceptHTML)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to fetch data")
	assert.Contains(t, w.Body.String(), `href="/patients"`)
	assert.Contains(t, env.audit.String(), "Event=GATEWAY_FAILURE")
	assert.Contains(t, env.audit.String(), "load patients failed")
}

func TestCreate_IncrementsSummary(t *testing.T) {
	forms := map[string]url.Values{
		dashboard.PagePatients: janeDoe,
		dashboard.PageDoctors: {
			"name":           {"Dr. Budi"},
			"specialization": {"Cardiology"},
			"phone_number":   {"0811111111"},
			"email":          {"budi@clinic.test"},
			"license_number": {"STR-001"},
		},
		dashboard.PageRecords: {
			"patient_id": {"1"},
			"doctor_id":  {"1"},
			"diagnosis":  {"Hypertension"},
		},
		dashboard.PagePrescriptions: {
			"record_id":       {"1"},
			"medicine_recipe": {"Amlodipine 5mg"},
			"dosage":          {"1x daily"},
			"instructions":    {"After breakfast"},
		},
	}

	for page, form := range forms {
		t.Run(page, func(t *testing.T) {
			env := setupDashboard(t)
			cookie := env.login(t, adminEmail)
			before := env.summary(t, cookie)

			w := env.postForm("/"+page, cookie, form)
			require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
			assert.Equal(t, "/"+page, w.Header().Get("Location"))

			after := env.summary(t, cookie)
			for name, total := range before {
				if name == page {
					assert.Equal(t, total+1, after[name])
				} else {
					assert.Equal(t, total, after[name], name)
				}
			}
		})
	}
}

func TestCreate_JaneDoeShowsOneRow(t *testing.T) {
	env := setupDashboard(t)
	cookie := env.login(t, adminEmail)

	payload := map[string]string{}
	for k := range janeDoe {
		payload[k] = janeDoe.Get(k)
	}
	w := env.postJSON("/patients", cookie, payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created struct {
		Data dashboard.Row `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotZero(t, created.Data.ID)

	rows := env.rows(t, cookie, dashboard.PagePatients)
	require.Len(t, rows, 1)
	assert.Equal(t, created.Data.ID, rows[0].ID)
	assert.Equal(t, strconv.Itoa(created.Data.ID), rows[0].Cells[0])
	assert.Equal(t, "Jane Doe", rows[0].Cells[1])
}

func TestCreate_MissingFieldsStaysLocal(t *testing.T) {
	env := setupDashboard(t)
	cookie := env.login(t, adminEmail)

	w := env.postForm("/patients", cookie, url.Values{"name": {"Jane Doe"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please fill in every required field")
	assert.Empty(t, env.api.CallsTo(http.MethodPost, "/patients/patients"))
}

func TestCreate_NonAdminIsForwarded(t *testing.T) {
	env := setupDashboard(t)
	cookie := env.login(t, staffEmail)

	w := env.postForm("/patients", cookie, janeDoe)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Len(t, env.api.CallsTo(http.MethodPost, "/patients/patients"), 1)

	env.api.AdminOnlyWrites = true
	w = env.postForm("/patients", cookie, janeDoe)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Not enough permissions")
	assert.Equal(t, 1, env.api.Count("/patients/patients"))
}

func TestCreate_UnknownPage(t *testing.T) {
	env := setupDashboard(t)
	cookie := env.login(t, adminEmail)

	w := env.postForm("/dashboard", cookie, janeDoe)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestView_RecordFields(t *testing.T) {
	env := setupDashboard(t)
	cookie := env.login(t, adminEmail)
	w := env.postForm("/records", cookie, url.Values{"patient_id": {"3"}, "doctor_id": {"4"}, "diagnosis": {"Migraine"}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = env.get("/records/1", cookie, acceptJSON)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data dashboard.Detail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []dashboard.Field{
		{Label: "Record ID", Value: "1"},
		{Label: "Patient ID", Value: "3"},
		{Label: "Doctor ID", Value: "4"},
		{Label: "Diagnosis", Value: "Migraine"},
		{Label: "Created", Value: "2024-05-17 08:30"},
	}, resp.Data.Fields)

	html := env.get("/records/1", cookie, acceptHTML)
	require.Equal(t, http.StatusOK, html.Code)
	assert.Contains(t, html.Body.String(), "<dd>Migraine</dd>")
	assert.Contains(t, html.Body.String(), "<dd>2024-05-17 08:30</dd>")
}

func TestView_EscapesServerValues(t *testing.T) {
	env := setupDashboard(t)
	cookie := env.login(t, adminEmail)
	form := url.Values{}
	for k, v := range janeDoe {
		form[k] = v
	}
	form.Set("name", "<b>Jane</b>")
	require.Equal(t, http.StatusSeeOther, env.postForm("/patients", cookie, form).Code)

	w := env.get("/patients/1", cookie, acceptHTML)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "&lt;b&gt;Jane&lt;/b&gt;")
	assert.NotContains(t, w.Body.String(), "<b>Jane</b>")
}

func TestView_Missing(t *testing.T) {
	env := setupDashboard(t)
	cookie := env.login(t, adminEmail)

	w := env.get("/doctors/42", cookie, acceptHTML)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Item not found")
	assert.NotContains(t, env.audit.String(), "GATEWAY_FAILURE")

	w = env.get("/doctors/abc", cookie, acceptHTML)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEditForm_PrefillsServerValues(t *testing.T) {
	env := setupDashboard(t)
	cookie := env.login(t, adminEmail)
	require.Equal(t, http.StatusSeeOther, env.postForm("/patients", cookie, janeDoe).Code)

	w := env.get("/patients/1/edit", cookie, acceptHTML)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `action="/patients/1/edit"`)
	assert.Contains(t, body, `value="Jane Doe"`)
	assert.Contains(t, body, `<option value="F" selected>`)
	assert.Contains(t, body, "Jl. Merdeka 1, Bandung</textarea>")
	assert.Empty(t, env.api.CallsTo(http.MethodPut, "/patients/patients/1"))
}

func TestEditForm_Missing(t *testing.T) {
	env := setupDashboard(t)
	cookie := env.login(t, adminEmail)

	w := env.get("/doctors/8/edit", cookie, acceptHTML)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `role="alert">Item not found`)

	w = env.get("/dashboard/1/edit", cookie, acceptHTML)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdate_ReplacesRowAndRedirects(t *testing.T) {
	env := setupDashboard(t)
	cookie := env.login(t, adminEmail)
	require.Equal(t, http.StatusSeeOther, env.postForm("/patients", cookie, janeDoe).Code)

	form := url.Values{}
	for k, v := range janeDoe {
		form[k] = v
	}
	form.Set("name", "Jane Smith")
	w := env.postForm("/patients/1/edit", cookie, form)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/patients", w.Header().Get("Location"))
	assert.Len(t, env.api.CallsTo(http.MethodPut, "/patients/patients/1"), 1)
	rows := env.rows(t, cookie, dashboard.PagePatients)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].ID)
	assert.Equal(t, "Jane Smith", rows[0].Cells[1])
	assert.Equal(t, 1, env.summary(t, cookie)[dashboard.PagePatients])
}

func TestUpdate_MissingFieldsStaysLocal(t *testing.T) {
	env := setupDashboard(t)
	cookie := env.login(t, adminEmail)
	require.Equal(t, http.StatusSeeOther, env.postForm("/patients", cookie, janeDoe).Code)

	w := env.postForm("/patients/1/edit", cookie, url.Values{"name": {"Jane Smith"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please fill in every required field")
	assert.Empty(t, env.api.CallsTo(http.MethodPut, "/patients/patients/1"))
	assert.Equal(t, "Jane Doe", env.rows(t, cookie, dashboard.PagePatients)[0].Cells[1])
}

func TestUpdate_MissingIDJSON(t *testing.T) {
	env := setupDashboard(t)
	cookie := env.login(t, adminEmail)

	body := map[string]interface{}{"record_id": 1, "medicine_recipe": "Paracetamol", "dosage": "500mg", "instructions": "After meals"}
	b, _ := json.Marshal(body)
	w := env.perform(requestSpec{method: http.MethodPost, path: "/prescriptions/9/edit", cookie: cookie, accept: acceptJSON, contentType: contentJSON, body: string(b)})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "Item not found", resp.Msg)
}

func TestConfirmDelete_DoesNotDelete(t *testing.T) {
	env := setupDashboard(t)
	cookie := env.login(t, adminEmail)
	require.Equal(t, http.StatusSeeOther, env.postForm("/patients", cookie, janeDoe).Code)

	w := env.get("/patients/1/delete", cookie, acceptHTML)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/patients/1/delete"`)
	assert.Empty(t, env.api.CallsTo(http.MethodDelete, "/patients/patients/1"))
	assert.Equal(t, 1, env.api.Count("/patients/patients"))
}

func TestDelete(t *testing.T) {
	env := setupDashboard(t)
	cookie := env.login(t, adminEmail)
	require.Equal(t, http.StatusSeeOther, env.postForm("/patients", cookie, janeDoe).Code)

	w := env.postForm("/patients/1/delete", cookie, nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/patients", w.Header().Get("Location"))
	assert.Empty(t, env.rows(t, cookie, dashboard.PagePatients))
	assert.Zero(t, env.summary(t, cookie)[dashboard.PagePatients])
}

func TestDelete_MissingIDAlerts(t *testing.T) {
	env := setupDashboard(t)
	cookie := env.login(t, adminEmail)
	require.Equal(t, http.StatusSeeOther, env.postForm("/patients", cookie, janeDoe).Code)

	w := env.postForm("/patients/99/delete", cookie, nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `role="alert">Item not found`)
	assert.Equal(t, 1, strings.Count(body, "<tr data-id="))
	assert.Len(t, env.rows(t, cookie, dashboard.PagePatients), 1)
}

func TestDelete_MissingIDJSON(t *testing.T) {
	env := setupDashboard(t)
	cookie := env.login(t, adminEmail)

	w := env.perform(requestSpec{method: http.MethodPost, path: "/prescriptions/7/delete", cookie: cookie, accept: acceptJSON})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "Item not found", resp.Msg)
}
