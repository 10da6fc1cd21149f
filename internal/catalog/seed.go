package catalog

import (
	"context"
	"fmt"

	"github.com/Djimarr/projek-maintenance/internal/db"
	"github.com/Djimarr/projek-maintenance/internal/models"
	log "github.com/sirupsen/logrus"
)

// PointSeed is one checklist question in presentation order.
type PointSeed struct {
	Section    string
	Question   string
	AnswerType models.AnswerType
}

// EquipmentSeed is an equipment template with its ordered checklist.
type EquipmentSeed struct {
	Name   string
	Points []PointSeed
}

// Defaults is the station's standard equipment catalog.
var Defaults = []EquipmentSeed{
	{
		Name: "RADAR CUACA EEC",
		Points: []PointSeed{
			{"1. Genset", "Cek kondisi air accu", models.AnswerPassFail},
			{"1. Genset", "Ukur Tegangan Accu", models.AnswerVoltageDC},
			{"1. Genset", "Cek air radiator", models.AnswerPassFail},
			{"1. Genset", "Cek ketersediaan solar", models.AnswerPassFail},
			{"1. Genset", "Cek kebersihan genset dan ruangan genset", models.AnswerPassFail},
			{"1. Genset", "Cek panel ATS", models.AnswerPassFail},
			{"1. Genset", "Test running genset (Sumber)", models.AnswerPassFail},
			{"1. Genset", "Ukur Tegangan Output Genset RN", models.AnswerVoltageAC},
			{"1. Genset", "Ukur Tegangan Output Genset SN", models.AnswerVoltageAC},
			{"1. Genset", "Ukur Tegangan Output Genset TN", models.AnswerVoltageAC},
			{"1. Genset", "Ukur Tegangan Output Genset RS", models.AnswerVoltageAC},
			{"1. Genset", "Ukur Tegangan Output Genset RT", models.AnswerVoltageAC},
			{"1. Genset", "Ukur Tegangan Output Genset ST", models.AnswerVoltageAC},
			{"1. Genset", "Ukur Tegangan PLN RN (Panel ATS)", models.AnswerVoltageAC},
			{"1. Genset", "Ukur Tegangan PLN SN (Panel ATS)", models.AnswerVoltageAC},
			{"1. Genset", "Ukur Tegangan PLN TN (Panel ATS)", models.AnswerVoltageAC},
			{"1. Genset", "Ukur Tegangan PLN RS (Panel ATS)", models.AnswerVoltageAC},
			{"1. Genset", "Ukur Tegangan PLN RT (Panel ATS)", models.AnswerVoltageAC},
			{"1. Genset", "Ukur Tegangan PLN ST (Panel ATS)", models.AnswerVoltageAC},
			{"1. Genset", "Ukur Arus Beban R", models.AnswerCurrent},
			{"1. Genset", "Ukur Arus Beban S", models.AnswerCurrent},
			{"1. Genset", "Ukur Arus Beban T", models.AnswerCurrent},
			{"1. Genset", "Ukur Arus Beban N", models.AnswerCurrent},
			{"1. Genset", "Cek Operate Time", models.AnswerHours},
			{"2. Air Conditioner (AC)", "Cek kondisi temperatur ruangan", models.AnswerPassFail},
			{"3. Ruangan Server", "Cek kebersihan unit CPU, keyboard, mouse, monitor Server Rx", models.AnswerPassFail},
			{"3. Ruangan Server", "Cek kebersihan ruangan server", models.AnswerPassFail},
			{"4. PC LDM", "Cek kebersihan unit CPU, keyboard, mouse, monitor", models.AnswerPassFail},
			{"5. UPS LDM", "Cek Tegangan Input", models.AnswerVoltageAC},
			{"5. UPS LDM", "Cek Tegangan Output", models.AnswerVoltageAC},
			{"5. UPS LDM", "Cek Load UPS", models.AnswerPercentage},
			{"5. UPS LDM", "Cek kebersihan UPS", models.AnswerPassFail},
			{"6. Perangkat Jaringan", "Cek switch Hub", models.AnswerPassFail},
			{"6. Perangkat Jaringan", "Cek router", models.AnswerPassFail},
			{"6. Perangkat Jaringan", "Cek jaringan Radar", models.AnswerPassFail},
			{"6. Perangkat Jaringan", "Cek catu daya processor", models.AnswerPassFail},
			{"7. Unit Antena Processor", "Cek Operate Time", models.AnswerHours},
			{"7. Unit Antena Processor", "Cek Tegangan HVPS", models.AnswerVoltageDC},
			{"8. Antena Parabola System", "Check Azimut", models.AnswerPassFail},
			{"8. Antena Parabola System", "Check Elevasi", models.AnswerPassFail},
			{"9. UPS RADAR", "Cek tegangan input", models.AnswerVoltageDC},
			{"9. UPS RADAR", "Cek tegangan output", models.AnswerVoltageDC},
			{"9. UPS RADAR", "Cek load UPS", models.AnswerPercentage},
			{"9. UPS RADAR", "Cek kebersihan UPS", models.AnswerPassFail},
		},
	},
	{
		Name: "AWS DIGITASI",
		Points: []PointSeed{
			{"1. Datalogger", "Cek kebersihan datalogger", models.AnswerPassFail},
			{"1. Datalogger", "Cek pembacaan seluruh sensor", models.AnswerPassFail},
			{"1. Datalogger", "Ukur tegangan sumber daya", models.AnswerVoltageAC},
			{"1. Datalogger", "Ukur tegangan battery", models.AnswerVoltageAC},
			{"2. Sensor Suhu dan Kelembapan", "Cek kondisi sensor", models.AnswerPassFail},
			{"3. Sensor Tekanan", "Cek kondisi sensor", models.AnswerPassFail},
			{"3. Sensor Tekanan", "Cek selang udara dari sensor ke udara luar", models.AnswerPassFail},
			{"4. Sensor Hujan", "Cek pondasi dan dudukan sensor hujan", models.AnswerPassFail},
			{"4. Sensor Hujan", "Test Reed Switch", models.AnswerPassFail},
			{"4. Sensor Hujan", "Cek kondisi tipping bucket", models.AnswerPassFail},
			{"4. Sensor Hujan", "Cek saluran masuk air", models.AnswerPassFail},
			{"4. Sensor Hujan", "Cek saluran buang", models.AnswerPassFail},
			{"5. Sensor Angin", "Cek kondisi sensor", models.AnswerPassFail},
			{"6. Sensor Radiasi Matahari", "Cek kondisi sensor", models.AnswerPassFail},
			{"7. Sensor Penguapan Udara", "Cek kondisi sensor", models.AnswerPassFail},
			{"7. Sensor Penguapan Udara", "Pastikan level air sesuai", models.AnswerPassFail},
			{"8. Server", "Cek kebersihan PC/Server", models.AnswerPassFail},
			{"8. Server", "Cek real time data", models.AnswerPassFail},
			{"9. UPS", "Ukur Tegangan Input R", models.AnswerVoltageAC},
			{"9. UPS", "Ukur Tegangan Input S", models.AnswerVoltageAC},
			{"9. UPS", "Ukur Tegangan Input T", models.AnswerVoltageAC},
			{"9. UPS", "Ukur Tegangan Input N", models.AnswerVoltageAC},
			{"9. UPS", "Ukur Tegangan Output R", models.AnswerVoltageAC},
			{"9. UPS", "Ukur Tegangan Output S", models.AnswerVoltageAC},
			{"9. UPS", "Ukur Tegangan Output T", models.AnswerVoltageAC},
			{"9. UPS", "Ukur Tegangan Output N", models.AnswerVoltageAC},
			{"9. UPS", "Cek Kebersihan UPS", models.AnswerPassFail},
			{"10. Cek Client di AMOS", "Cek tampilan data pada PC client", models.AnswerPassFail},
		},
	},
	{
		Name: "PERALATAN KONVENSIONAL",
		Points: []PointSeed{
			{"1. Sangkar Meteo", "Cek nilai thermometer max-min dan bola basah-kering", models.AnswerPassFail},
			{"1. Sangkar Meteo", "Cek kebersihan peralatan", models.AnswerPassFail},
			{"1. Sangkar Meteo", "Cek kain thermometer bola basah", models.AnswerPassFail},
			{"1. Sangkar Meteo", "Cek pondasi water level", models.AnswerPassFail},
			{"2. Cambre Stokes", "Cek kebersihan peralatan", models.AnswerPassFail},
			{"2. Cambre Stokes", "Cek kondisi pias", models.AnswerPassFail},
			{"2. Cambre Stokes", "Cek pondasi water level", models.AnswerPassFail},
			{"3. Penakar Hujan Hillmann", "Cek posisi pena mulai 0 hingga 10 mm", models.AnswerPassFail},
			{"3. Penakar Hujan Hillmann", "Cek kejernihan tinta", models.AnswerPassFail},
			{"3. Penakar Hujan Hillmann", "Cek saluran pembuangan", models.AnswerPassFail},
			{"3. Penakar Hujan Hillmann", "Cek saluran masuk hujan", models.AnswerPassFail},
			{"3. Penakar Hujan Hillmann", "Cek putaran silinder jatuh", models.AnswerPassFail},
			{"3. Penakar Hujan Hillmann", "Cek pondasi water level", models.AnswerPassFail},
			{"4. Penakar Hujan OBS", "Cek saluran masuk hujan", models.AnswerPassFail},
			{"4. Penakar Hujan OBS", "Cek kondisi keran", models.AnswerPassFail},
			{"4. Penakar Hujan OBS", "Cek tabung ukur", models.AnswerPassFail},
			{"4. Penakar Hujan OBS", "Cek pondasi water level", models.AnswerPassFail},
			{"5. Panci Penguapan", "Cek kebersihan air, still well, hook gauge, panci", models.AnswerPassFail},
			{"5. Panci Penguapan", "Cek pembacaan thermometer apung", models.AnswerPassFail},
			{"5. Panci Penguapan", "Cek fungsi cup counter", models.AnswerPassFail},
			{"5. Panci Penguapan", "Cek pondasi water level", models.AnswerPassFail},
			{"5. Panci Penguapan", "Kuras panci sebelum 00 UTC", models.AnswerPassFail},
			{"6. Theodolite", "Bersihkan peralatan dan lensa", models.AnswerPassFail},
			{"6. Theodolite", "Cek leveling", models.AnswerPassFail},
			{"6. Theodolite", "Cek lensa jarak jauh/dekat", models.AnswerPassFail},
		},
	},
}

// Seed loads templates into the store. Existing equipment and points are left
// untouched, so seeding is safe on every startup.
func Seed(ctx context.Context, store db.CatalogStore, templates []EquipmentSeed) error {
	for _, tpl := range templates {
		id, err := store.UpsertEquipment(ctx, tpl.Name)
		if err != nil {
			return fmt.Errorf("seed equipment %q: %w", tpl.Name, err)
		}
		for i, p := range tpl.Points {
			point := models.ChecklistPoint{
				EquipmentID: id,
				Section:     p.Section,
				Question:    p.Question,
				AnswerType:  p.AnswerType,
				OrderNumber: i + 1,
			}
			if err := store.EnsurePoint(ctx, point); err != nil {
				return fmt.Errorf("seed point %d of %q: %w", i+1, tpl.Name, err)
			}
		}
		log.WithFields(log.Fields{"equipment": tpl.Name, "points": len(tpl.Points)}).Debug("catalog seeded")
	}
	return nil
}
