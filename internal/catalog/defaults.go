package catalog

import "github.com/calcvol/calcvol/internal/model"

var defaultPipeTypes = []model.PipeType{
	{ID: 1, Label: "Tubo (2 3/8)", LitersPerMeter: 2.019},
	{ID: 2, Label: "Tubo (2 7/8)", LitersPerMeter: 3.020},
	{ID: 3, Label: "Tubo (3 1/2)", LitersPerMeter: 4.531},
}

var defaultOperationTypes = []model.OperationType{
	{ID: 1, Label: "Desparafinação Térmica"},
	{ID: 2, Label: "Passagem de Pig"},
	{ID: 3, Label: "Desparafinação Térmica e Passagem de Pig"},
	{ID: 4, Label: "Preenchimento de Linha de produção"},
	{ID: 5, Label: "Preenchimento de coluna"},
	{ID: 6, Label: "Teste de estanquidade"},
	{ID: 7, Label: "Teste hidrostático"},
}

// Codes keep the leading whole-inch number, which is what the registry stores.
var defaultDiameters = []model.NominalDiameter{
	{Label: "Tubo (2 3/8)", Value: "2 3/8", Code: 2},
	{Label: "Tubo (2 7/8)", Value: "2 7/8", Code: 2},
	{Label: "Tubo (3 1/2)", Value: "3 1/2", Code: 3},
	{Label: "3 polegadas", Value: "3", Code: 3},
	{Label: "4 polegadas", Value: "4", Code: 4},
	{Label: "6 polegadas", Value: "6", Code: 6},
	{Label: "8 polegadas", Value: "8", Code: 8},
}
