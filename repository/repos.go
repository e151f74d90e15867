package repository

import (
	"github.com/omni/pds-gateway/db"
	"github.com/omni/pds-gateway/entity"
	"github.com/omni/pds-gateway/repository/postgres"
)

type Repo struct {
	Reports entity.ReportsRepo
}

func NewRepo(db *db.DB) *Repo {
	return &Repo{
		Reports: postgres.NewReportsRepo("reports", db),
	}
}
