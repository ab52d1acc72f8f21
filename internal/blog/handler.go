package blog

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=blog_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bitfitpro/bitfit/internal/auth"
	"github.com/bitfitpro/bitfit/internal/telemetry/tracing"
	"github.com/bitfitpro/bitfit/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const maxPageSize = 100

type PostsResponse struct {
	Posts []*Post `json:"posts"`
	Total int     `json:"total"`
}

type clapRequest struct {
	ID int `json:"id"`
}

type blogRepo interface {
	Add(ctx context.Context, post *Post) error
	Update(ctx context.Context, post *Post) error
	Clap(ctx context.Context, id int) (int, error)
	Delete(ctx context.Context, id int) error
	All(ctx context.Context) ([]*Post, error)
	Count(ctx context.Context, category string) (int, error)
	Page(ctx context.Context, page, size int, category string) ([]*Post, error)
	Categories(ctx context.Context) ([]string, error)
}

type adminChecker interface {
	IsAdmin(ctx context.Context, identityID string) (bool, error)
}

type Handler struct {
	repo         blogRepo
	adminChecker adminChecker
}

func NewHandler(repo blogRepo, adminChecker adminChecker) *Handler {
	return &Handler{
		repo:         repo,
		adminChecker: adminChecker,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/blog/new", handler.handleNew).Methods("POST", "OPTIONS").Name("new-blog")
	router.HandleFunc("/blog/update", handler.handleUpdate).Methods("POST", "OPTIONS").Name("update-blog")
	router.HandleFunc("/blog/clap", handler.handleClap).Methods("PATCH", "OPTIONS").Name("blog-clapped")
	router.HandleFunc("/blog/delete/{id}", handler.handleDelete).Methods("DELETE", "OPTIONS").Name("delete-blog")
	router.HandleFunc("/blog/all", handler.handleAll).Methods("GET").Name("all-blogs")
	router.HandleFunc("/blog/page/{page}/size/{size}", handler.handleGetPage).Methods("GET").Name("blogs-page")
	router.HandleFunc("/blog/categories", handler.handleCategories).Methods("GET").Name("blog-categories")
}

func handleOptions(w http.ResponseWriter, r *http.Request, allow string) bool {
	if r.Method != http.MethodOptions {
		return false
	}
	w.Header().Add("Allow", allow)
	w.WriteHeader(http.StatusOK)
	return true
}

// requireAdmin writes the error response itself when it returns false.
func (handler *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return false
	}

	isAdmin, err := handler.adminChecker.IsAdmin(r.Context(), session.IdentityID)
	if err != nil {
		log.Errorf("check admin %s: %s", session.IdentityID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return false
	}
	if !isAdmin {
		log.Warnf("non admin %s tried to edit the blog", session.IdentityID)
		http.Error(w, "no can do", http.StatusForbidden)
		return false
	}
	return true
}

// readPost accepts a JSON body or a form.
func readPost(r *http.Request) (*Post, error) {
	var post Post
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
			return nil, fmt.Errorf("unmarshal json params: %w", err)
		}
		return &post, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	post = Post{
		Title:    r.Form.Get("title"),
		Excerpt:  r.Form.Get("excerpt"),
		Content:  r.Form.Get("content"),
		Author:   r.Form.Get("author"),
		Category: r.Form.Get("category"),
	}
	if idStr := r.Form.Get("id"); idStr != "" {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return nil, errors.New("id NaN")
		}
		post.ID = id
	}
	if rt := r.Form.Get("readTimeMinutes"); rt != "" {
		readTime, err := strconv.Atoi(rt)
		if err != nil {
			return nil, errors.New("readTimeMinutes NaN")
		}
		post.ReadTimeMinutes = readTime
	}
	return &post, nil
}

func (handler *Handler) handleNew(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "blogHandler.new")
	defer span.End()

	if handleOptions(w, r, "POST, OPTIONS") || !handler.requireAdmin(w, r) {
		return
	}

	post, err := readPost(r)
	if err != nil {
		log.Errorf("new blog post: %s", err)
		http.Error(w, "add blog post failed", http.StatusBadRequest)
		return
	}
	post.ID = 0
	post.Claps = 0
	post.CreatedAt = post.CreatedAt.UTC()

	if err := handler.repo.Add(ctx, post); err != nil {
		if errors.Is(err, ErrPostFieldsMissing) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("add new blog post failed: %s", err)
		http.Error(w, "add new blog post failed", http.StatusInternalServerError)
		return
	}

	log.Tracef("new blog post %d: [%s] added", post.ID, post.Title)

	pkg.WriteResponse(
		w,
		pkg.ContentType.Text,
		fmt.Sprintf("added:%d", post.ID),
		http.StatusCreated,
	)
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "blogHandler.update")
	defer span.End()

	if handleOptions(w, r, "POST, OPTIONS") || !handler.requireAdmin(w, r) {
		return
	}

	post, err := readPost(r)
	if err != nil {
		log.Errorf("update blog post: %s", err)
		http.Error(w, "update blog post failed", http.StatusBadRequest)
		return
	}
	if post.ID <= 0 {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.Int("id", post.ID))

	if err := handler.repo.Update(ctx, post); err != nil {
		switch {
		case errors.Is(err, ErrPostFieldsMissing):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrPostNotFound):
			http.Error(w, "blog post not found", http.StatusNotFound)
		default:
			log.Errorf("update blog post failed: %s", err)
			http.Error(w, "update blog post failed", http.StatusInternalServerError)
		}
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("updated:%d", post.ID))
}

func (handler *Handler) handleClap(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "blogHandler.clap")
	defer span.End()

	if handleOptions(w, r, "PATCH, OPTIONS") {
		return
	}

	var clapReq clapRequest
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&clapReq); err != nil {
			log.Errorf("blog clap, unmarshal json params: %s", err)
			http.Error(w, "clap failed", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("blog clap, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusBadRequest)
			return
		}
		id, err := strconv.Atoi(r.Form.Get("id"))
		if err != nil {
			http.Error(w, "error, id NaN", http.StatusBadRequest)
			return
		}
		clapReq.ID = id
	}

	claps, err := handler.repo.Clap(ctx, clapReq.ID)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			http.Error(w, "blog post not found", http.StatusNotFound)
			return
		}
		log.Errorf("clap blog post %d: %s", clapReq.ID, err)
		http.Error(w, "clap failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"id":%d,"claps":%d}`, clapReq.ID, claps))
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "blogHandler.delete")
	defer span.End()

	if handleOptions(w, r, "DELETE, OPTIONS") || !handler.requireAdmin(w, r) {
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrPostNotFound) {
			http.Error(w, "blog post not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete blog post %d: %s", id, err)
		http.Error(w, "error, blog post not deleted, internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("deleted:%d", id))
}

func (handler *Handler) handleAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "blogHandler.all")
	defer span.End()

	posts, err := handler.repo.All(ctx)
	if err != nil {
		log.Errorf("get all blog posts error: %s", err)
		http.Error(w, "get all blog posts error", http.StatusInternalServerError)
		return
	}
	if posts == nil {
		posts = []*Post{}
	}

	postsJson, err := json.Marshal(posts)
	if err != nil {
		log.Errorf("marshal all blog posts error: %s", err)
		http.Error(w, "marshal all blog posts error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, postsJson)
}

func (handler *Handler) handleGetPage(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "blogHandler.page")
	defer span.End()

	vars := mux.Vars(r)
	page, err := strconv.Atoi(vars["page"])
	if err != nil {
		log.Errorf("handle get blog page, from <page> param: %s", err)
		http.Error(w, "parse form error, parameter <page>", http.StatusBadRequest)
		return
	}
	size, err := strconv.Atoi(vars["size"])
	if err != nil {
		log.Errorf("handle get blog page, from <size> param: %s", err)
		http.Error(w, "parse form error, parameter <size>", http.StatusBadRequest)
		return
	}
	if page < 1 {
		http.Error(w, "invalid page (has to be non-zero value)", http.StatusBadRequest)
		return
	}
	if size < 1 || size > maxPageSize {
		http.Error(w, fmt.Sprintf("invalid size (has to be between 1 and %d)", maxPageSize), http.StatusBadRequest)
		return
	}

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	log.Tracef("get blog posts - page %d size %d category [%s]", page, size, category)

	posts, err := handler.repo.Page(ctx, page, size, category)
	if err != nil {
		log.Errorf("get blog posts error: %s", err)
		http.Error(w, "failed to get blog posts", http.StatusInternalServerError)
		return
	}
	if posts == nil {
		posts = []*Post{}
	}

	total, err := handler.repo.Count(ctx, category)
	if err != nil {
		log.Errorf("count blog posts error: %s", err)
		http.Error(w, "failed to get blog posts", http.StatusInternalServerError)
		return
	}

	postsRespJson, err := json.Marshal(PostsResponse{
		Posts: posts,
		Total: total,
	})
	if err != nil {
		log.Errorf("marshal blog posts error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, postsRespJson, http.StatusOK)
}

func (handler *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "blogHandler.categories")
	defer span.End()

	categories, err := handler.repo.Categories(ctx)
	if err != nil {
		log.Errorf("get blog categories error: %s", err)
		http.Error(w, "failed to get blog categories", http.StatusInternalServerError)
		return
	}
	if categories == nil {
		categories = []string{}
	}

	categoriesJson, err := json.Marshal(categories)
	if err != nil {
		log.Errorf("marshal blog categories error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, categoriesJson)
}
