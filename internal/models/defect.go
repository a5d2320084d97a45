package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefectReport is a flat record describing an equipment fault as filled in on
// the reporting form. Every field is optional; whatever the client sends is
// persisted verbatim. Reports carry no reference to the submitting user.
type DefectReport struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`

	TankName    string `bson:"tankName,omitempty" json:"tankName,omitempty"`
	Model       string `bson:"model,omitempty" json:"model,omitempty"`
	Year        *int   `bson:"year,omitempty" json:"year,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	DefectNo    *int   `bson:"defectNo,omitempty" json:"defectNo,omitempty"`
	DefectRefNo *int   `bson:"defectRefNo,omitempty" json:"defectRefNo,omitempty"`
	EngineNo    string `bson:"engineNo,omitempty" json:"engineNo,omitempty"`
	TankBANo    string `bson:"tankBANo,omitempty" json:"tankBANo,omitempty"`
	EngineHrs   string `bson:"engineHrs,omitempty" json:"engineHrs,omitempty"`
	KM          string `bson:"km,omitempty" json:"km,omitempty"`

	LastMaintenance *Date `bson:"lastMaintenance,omitempty" json:"lastMaintenance,omitempty"`
	InSuitDIDate    *Date `bson:"inSuitDIDate,omitempty" json:"inSuitDIDate,omitempty"`
	ReceiptHVF      *Date `bson:"receiptHVF,omitempty" json:"receiptHVF,omitempty"`
	ReceiptCVRDE    *Date `bson:"receiptCVRDE,omitempty" json:"receiptCVRDE,omitempty"`
	DateJRI         *Date `bson:"dateJRI,omitempty" json:"dateJRI,omitempty"`
	DetailedDI      *Date `bson:"detailedDI,omitempty" json:"detailedDI,omitempty"`

	PlaceDI              string `bson:"placeDI,omitempty" json:"placeDI,omitempty"`
	BackgroundCase       string `bson:"backgroundCase,omitempty" json:"backgroundCase,omitempty"`
	InvestigationReport  *Date  `bson:"investigationReport,omitempty" json:"investigationReport,omitempty"`
	NatureDefect         string `bson:"natureDefect,omitempty" json:"natureDefect,omitempty"`
	CauseFailure         string `bson:"causeFailure,omitempty" json:"causeFailure,omitempty"`
	RemedialMeasure      string `bson:"remedialMeasure,omitempty" json:"remedialMeasure,omitempty"`
	Conclusion           string `bson:"conclusion,omitempty" json:"conclusion,omitempty"`
	CorrectivePrevention string `bson:"correctivePrevention,omitempty" json:"correctivePrevention,omitempty"`
	HoldingEquipment     string `bson:"holdingEquipment,omitempty" json:"holdingEquipment,omitempty"`

	IssueDate       *Date `bson:"issueDate,omitempty" json:"issueDate,omitempty"`
	RecStart        *Date `bson:"recStart,omitempty" json:"recStart,omitempty"`
	RecCom          *Date `bson:"recCom,omitempty" json:"recCom,omitempty"`
	CoupDate        *Date `bson:"coupDate,omitempty" json:"coupDate,omitempty"`
	NetMainDate     *Date `bson:"netMainDate,omitempty" json:"netMainDate,omitempty"`
	PPDate          *Date `bson:"ppDate,omitempty" json:"ppDate,omitempty"`
	BackloadingDate *Date `bson:"backloadingDate,omitempty" json:"backloadingDate,omitempty"`

	PartNo    string   `bson:"partNo,omitempty" json:"partNo,omitempty"`
	SparesCon *float64 `bson:"sparesCon,omitempty" json:"sparesCon,omitempty"`
	Nom       string   `bson:"nom,omitempty" json:"nom,omitempty"`
	Quantity  *int     `bson:"quantity,omitempty" json:"quantity,omitempty"`
	Remark    string   `bson:"remark,omitempty" json:"remark,omitempty"`
}

// Date wraps time.Time so the defect form can submit either a bare
// "2006-01-02" (what an <input type="date"> produces) or a full RFC 3339
// timestamp. Stored in Mongo as a native datetime.
type Date struct {
	time.Time
}

const dateOnly = "2006-01-02"

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return d.Time.MarshalJSON()
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		d.Time = time.Time{}
		return nil
	}
	if err := d.Time.UnmarshalJSON(data); err == nil {
		return nil
	}
	t, err := time.Parse(`"`+dateOnly+`"`, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(d.Time)
}

func (d *Date) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	return bson.UnmarshalValue(t, data, &d.Time)
}
