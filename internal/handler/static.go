package handler

import (
	"io/fs"
	"net/http"
)

// StaticHandler は埋め込みの静的ページを配信するHTTPハンドラー。
type StaticHandler struct {
	files fs.FS
}

// NewStaticHandler はStaticHandlerを生成する。filesはindex.html、dashboard.html、assets/を含む。
func NewStaticHandler(files fs.FS) *StaticHandler {
	return &StaticHandler{files: files}
}

// Index はログイン・サインアップページを返す。
// GET /
func (h *StaticHandler) Index(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, h.files, "index.html")
}

// Dashboard はダッシュボードページを返す。認証はページ内のスクリプトがAPI経由で行う。
// GET /dashboard
func (h *StaticHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, h.files, "dashboard.html")
}

// Assets はassets/配下のスクリプトとスタイルシートを返す。
// GET /assets/*
func (h *StaticHandler) Assets() http.Handler {
	return http.FileServerFS(h.files)
}
