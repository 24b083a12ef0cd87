package db

import _ "embed"

// Schema - DDL таблиц ядра обменов. Все операторы идемпотентны.
//
//go:embed schema.sql
var Schema string
