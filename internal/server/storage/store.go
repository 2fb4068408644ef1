package storage

import "io"

// Store объединяет хранилища пользователей и сессий одного бэкенда
type Store interface {
	UserStorage
	SessionStorage
	io.Closer
}
