package database

import (
	"path/filepath"
	"testing"

	"doctrack-platform/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "hits.db")

	db, err := Open(Options{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	defer Close(db)

	assert.True(t, db.Migrator().HasTable(&model.Hit{}))
	assert.True(t, db.Migrator().HasTable(&model.User{}))
	assert.True(t, db.Migrator().HasColumn(&model.Hit{}, "ua"))
	assert.True(t, db.Migrator().HasColumn(&model.Hit{}, "ts"))

	u := model.User{Username: "reserved"}
	require.NoError(t, u.SetPassword("pw"))
	require.NoError(t, db.Create(&u).Error)
	dup := model.User{Username: "reserved", PasswordHash: "x"}
	assert.Error(t, db.Create(&dup).Error, "username is unique")
}

func TestDialectorFor(t *testing.T) {
	d, err := dialectorFor(Options{Driver: "mysql", User: "u", Password: "p", Host: "db", Port: 3306, Name: "doctrack"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	_, err = dialectorFor(Options{Driver: "oracle"})
	assert.Error(t, err)
}
