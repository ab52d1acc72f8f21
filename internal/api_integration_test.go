//go:build integration_test || all_tests

package internal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/bitfitpro/bitfit/internal/blog"
	"github.com/bitfitpro/bitfit/internal/photos"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestRoot() {
	ctx := context.Background()
	status, body := s.doJSON(ctx, "GET", "/", nil, "")
	s.Equal(http.StatusOK, status)
	s.Equal("I'm OK, thanks ;)", string(body))

	status, body = s.doJSON(ctx, "GET", "/version", nil, "")
	s.Equal(http.StatusOK, status)
	s.Equal("test-version-info", string(body))
}

func (s *IntegrationTestSuite) TestAuth_SignUpLoginLogout() {
	ctx := context.Background()
	t := s.T()

	email := strings.ToLower(gofakeit.Email())
	identityID, token := s.signUpAndLogin(ctx, email, gofakeit.Name())

	var accounts int
	require.NoError(t, s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM account WHERE id = $1`, identityID).Scan(&accounts))
	assert.Equal(t, 1, accounts)

	status, _ := s.doJSON(ctx, "POST", "/a/signup", map[string]string{
		"email":    email,
		"password": testPassword,
	}, "")
	assert.Equal(t, http.StatusConflict, status)

	status, body := s.doJSON(ctx, "GET", "/a/me", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), email)

	status, body = s.doJSON(ctx, "GET", "/a/logout", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "logged-out", string(body))

	status, _ = s.doJSON(ctx, "GET", "/a/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.doJSON(ctx, "POST", "/a/login", map[string]string{
		"email":    email,
		"password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func (s *IntegrationTestSuite) TestProfile() {
	ctx := context.Background()
	t := s.T()

	status, _ := s.doJSON(ctx, "GET", "/profile", nil, "")
	require.Equal(t, http.StatusUnauthorized, status)

	email := strings.ToLower(gofakeit.Email())
	identityID, token := s.signUpAndLogin(ctx, email, "Dana")

	status, body := s.doJSON(ctx, "PUT", "/profile", map[string]string{
		"name":          "Dana",
		"age":           "30",
		"height":        "175",
		"weight":        "80",
		"activityLevel": "moderate",
		"email":         "changed@bitfit.test",
	}, token)
	require.Equal(t, http.StatusOK, status, string(body))

	var p struct {
		IdentityID string `json:"identityId"`
		Attributes struct {
			Email  string `json:"email"`
			Weight string `json:"weight"`
		} `json:"attributes"`
		Synced bool `json:"synced"`
		BMI    *struct {
			Value float64 `json:"value"`
		} `json:"bmi"`
	}
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, identityID, p.IdentityID)
	assert.Equal(t, "80", p.Attributes.Weight)
	assert.NotEqual(t, "changed@bitfit.test", p.Attributes.Email)
	assert.True(t, p.Synced)
	require.NotNil(t, p.BMI)
	assert.InDelta(t, 26.1, p.BMI.Value, 0.05)

	// the calorie plan picks the missing inputs up from the stored profile
	status, body = s.doJSON(ctx, "POST", "/calories/plan", map[string]any{
		"gender":        "male",
		"targetWeight":  74,
		"activityLevel": "sedentary",
	}, token)
	require.Equal(t, http.StatusOK, status, string(body))

	var plan struct {
		BMR      int   `json:"bmr"`
		Timeline []any `json:"timeline"`
	}
	require.NoError(t, json.Unmarshal(body, &plan))
	assert.Equal(t, 1749, plan.BMR)
	assert.Len(t, plan.Timeline, 13)
}

func (s *IntegrationTestSuite) TestBlog_Admin() {
	ctx := context.Background()
	t := s.T()

	_, adminToken := s.signUpAndLogin(ctx, testAdminEmail, "Admin")
	_, userToken := s.signUpAndLogin(ctx, strings.ToLower(gofakeit.Email()), "User")

	newPost := map[string]any{
		"title":    "Protein Timing",
		"content":  "Spread your protein over the day. " + gofakeit.Paragraph(1, 3, 10, " "),
		"author":   "Coach",
		"category": "Nutrition",
	}

	status, _ := s.doJSON(ctx, "POST", "/blog/new", newPost, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = s.doJSON(ctx, "POST", "/blog/new", newPost, userToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := s.doJSON(ctx, "POST", "/blog/new", newPost, adminToken)
	require.Equal(t, http.StatusCreated, status, string(body))
	var id int
	_, err := fmt.Sscanf(string(body), "added:%d", &id)
	require.NoError(t, err)

	status, body = s.doJSON(ctx, "PATCH", "/blog/clap", map[string]int{"id": id}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, fmt.Sprintf(`{"id":%d,"claps":1}`, id), string(body))

	status, body = s.doJSON(ctx, "GET", "/blog/page/1/size/10?category=Nutrition", nil, "")
	require.Equal(t, http.StatusOK, status)
	var page blog.PostsResponse
	require.NoError(t, json.Unmarshal(body, &page))
	require.NotEmpty(t, page.Posts)
	assert.Equal(t, id, page.Posts[0].ID)
	assert.Equal(t, 1, page.Posts[0].Claps)
	assert.NotEmpty(t, page.Posts[0].Excerpt)

	status, body = s.doJSON(ctx, "GET", "/blog/categories", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "Nutrition")

	status, _ = s.doJSON(ctx, "DELETE", fmt.Sprintf("/blog/delete/%d", id), nil, adminToken)
	require.Equal(t, http.StatusOK, status)
	status, _ = s.doJSON(ctx, "DELETE", fmt.Sprintf("/blog/delete/%d", id), nil, adminToken)
	assert.Equal(t, http.StatusNotFound, status)
}

func (s *IntegrationTestSuite) TestAssessments_Anonymous() {
	ctx := context.Background()
	t := s.T()

	status, body := s.doJSON(ctx, "POST", "/assess/bodyfat", map[string]any{
		"gender": "male",
		"age":    30,
		"height": 175,
		"neck":   38,
		"waist":  85,
	}, "")
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"bodyFat":{"value":16.9,`)

	status, _ = s.doJSON(ctx, "POST", "/assess/cardio/swim", map[string]any{"age": 30}, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.doJSON(ctx, "GET", "/benchmarks/strength", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "pushUp")

	status, body = s.doJSON(ctx, "GET", "/guides/weight-loss/download", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "WEIGHT LOSS GUIDE - BitFit Pro")
}

func (s *IntegrationTestSuite) TestPhotos() {
	ctx := context.Background()
	t := s.T()

	_, token := s.signUpAndLogin(ctx, strings.ToLower(gofakeit.Email()), "Photo User")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("photo", "front view.png")
	require.NoError(t, err)
	_, err = fw.Write(append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := s.newRequest(ctx, "POST", "/photos/"+photos.AreaPosture, &buf, token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	status, body := s.do(req)
	require.Equal(t, http.StatusCreated, status, string(body))

	var obj photos.ListedObject
	require.NoError(t, json.Unmarshal(body, &obj))
	assert.Equal(t, "front_view.png", obj.Filename)
	assert.Equal(t, "image/png", obj.ContentType)

	status, body = s.doJSON(ctx, "GET", "/photos/"+photos.AreaPosture, nil, token)
	require.Equal(t, http.StatusOK, status)
	var listed []photos.ListedObject
	require.NoError(t, json.Unmarshal(body, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, obj.ID, listed[0].ID)
	assert.Equal(t, "/photos/"+photos.AreaPosture+"/"+obj.ID, listed[0].URL)

	status, body = s.doJSON(ctx, "GET", listed[0].URL, nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))

	// the photo is not reachable through the other area
	status, _ = s.doJSON(ctx, "DELETE", "/photos/"+photos.AreaProfile+"/"+obj.ID, nil, token)
	assert.Equal(t, http.StatusNotFound, status)

	// other accounts can not see the photo
	_, otherToken := s.signUpAndLogin(ctx, strings.ToLower(gofakeit.Email()), "Other")
	status, _ = s.doJSON(ctx, "GET", "/photos/"+photos.AreaPosture+"/"+obj.ID, nil, otherToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.doJSON(ctx, "DELETE", "/photos/"+photos.AreaPosture+"/"+obj.ID, nil, token)
	require.Equal(t, http.StatusOK, status)
	status, _ = s.doJSON(ctx, "GET", "/photos/"+photos.AreaPosture+"/"+obj.ID, nil, token)
	assert.Equal(t, http.StatusNotFound, status)
}
