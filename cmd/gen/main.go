package main

import (
	"eatsy/internal/infra/persistence/model"

	"gorm.io/gen"
)

func main() {
	models := []any{
		model.UserModel{},
		model.CustomerProfileModel{},
		model.CookProfileModel{},
		model.AuthenticationModel{},
		model.RefreshTokenModel{},
		model.DishModel{},
		model.OrderModel{},
		model.OrderItemModel{},
	}

	gen := gen.NewGenerator(gen.Config{
		OutPath: "./internal/infra/persistence/postgres/query",
	})

	gen.ApplyBasic(models...)

	gen.Execute()
}
