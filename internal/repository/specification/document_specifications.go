package specification

import "gorm.io/gorm"

type ByFilename struct {
	Filename string
}

func (s ByFilename) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("filename = ?", s.Filename)
}

type Ingested struct {
	Value bool
}

func (s Ingested) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("ingested = ?", s.Value)
}
