package model

import "time"

// User is an application account. The password hash never leaves the store.
type User struct {
	ID         int64                  `json:"id"`
	AppID      string                 `json:"app_id"`
	Username   string                 `json:"username"`
	FirstLogin bool                   `json:"first_login"`
	LastActive *time.Time             `json:"last_active,omitempty"`
	Provider   string                 `json:"provider"`
	MetaData   map[string]interface{} `json:"meta,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
	DeletedAt  *time.Time             `json:"deleted_at,omitempty"`
	Profiles   []Profile              `json:"profiles,omitempty"`
	Address    []Address              `json:"address,omitempty"`
}

type Profile struct {
	ID          int64                  `json:"id"`
	UserID      int64                  `json:"user_id"`
	NationalID  string                 `json:"national_id"`
	FirstName   string                 `json:"first_name"`
	LastName    string                 `json:"last_name"`
	Email       string                 `json:"email"`
	PhoneNumber string                 `json:"phone_number"`
	Image       string                 `json:"image"`
	MetaData    map[string]interface{} `json:"meta,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	DeletedAt   *time.Time             `json:"deleted_at,omitempty"`
	User        *User                  `json:"user,omitempty"`
}

type Address struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Name        string     `json:"name"`
	AddressOne  string     `json:"address_one"`
	AddressTwo  string     `json:"address_two"`
	PhoneNumber string     `json:"phone_number"`
	SubDistrict string     `json:"sub_district"`
	District    string     `json:"district"`
	Province    string     `json:"province"`
	Country     string     `json:"country"`
	ZipCode     string     `json:"zip_code"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	User        *User      `json:"user,omitempty"`
}

// FilterPage is the typed result of an advance filter call.
type FilterPage[T any] struct {
	Data      []T   `json:"data"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}
