package emit

import (
	"github.com/gocarina/gocsv"

	"github.com/John-Robertt/FQPG/internal/config"
	"github.com/John-Robertt/FQPG/internal/domain"
)

type sheetRow struct {
	Sample string `csv:"sample"`
	R1     string `csv:"r1"`
	R2     string `csv:"r2"`
}

// SampleSheet 生成扁平样本表（每样本一行：名称、mate1 路径、mate2 路径）。
// 该表不挑流水线，始终生成。
type SampleSheet struct{}

func (SampleSheet) Name() string { return "samplesheet" }

func (SampleSheet) Filename(prefix string) string { return prefix + "sample_sheet.csv" }

func (SampleSheet) Encode(samples []domain.Sample, eff config.EffectiveConfig) ([]byte, error) {
	rows := make([]sheetRow, 0, len(samples))
	for _, s := range samples {
		if !s.Complete() {
			continue
		}
		rows = append(rows, sheetRow{
			Sample: s.Name,
			R1:     s.Mate1.AbsPath,
			R2:     s.Mate2.AbsPath,
		})
	}
	out, err := gocsv.MarshalString(&rows)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}
