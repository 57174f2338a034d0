package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hitoshi/blogman/internal/model"
)

// FileSessionRepo はJSONファイルを使用したセッションリポジトリ。
// ブラウザ版のlocalStorageに相当する、プロセス再起動をまたぐ永続化を提供する。
type FileSessionRepo struct {
	path string
}

// NewFileSessionRepo はFileSessionRepoを生成する。
func NewFileSessionRepo(path string) *FileSessionRepo {
	return &FileSessionRepo{path: path}
}

// Load は永続化されたセッションを読み込む。
// ファイルが存在しない場合は(nil, nil)を返す。
// JSONが壊れている場合はエラーを返す。
func (r *FileSessionRepo) Load() (*model.Session, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}

	// トークンのないblobはセッションとして不成立
	if session.Token == "" {
		return nil, fmt.Errorf("session file is missing token")
	}

	return &session, nil
}

// Save はセッションをJSONとして書き込む。
// 親ディレクトリが存在しない場合は作成する。
// トークンを含むため、ファイルの権限は所有者のみ読み書き可能にする。
func (r *FileSessionRepo) Save(session *model.Session) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Clear は永続化されたセッションを削除する。ファイルが無くてもエラーにしない。
func (r *FileSessionRepo) Clear() error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
