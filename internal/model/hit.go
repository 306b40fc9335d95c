package model

// Hit 一次点击或下载事件, 写入后不再修改
type Hit struct {
	ID        uint     `gorm:"primarykey;autoIncrement" json:"id"`
	DocRef    string   `gorm:"column:doc_ref;size:16;index" json:"doc_ref"`
	UserID    string   `gorm:"column:user_id;size:64" json:"user_id"`
	IP        string   `gorm:"column:ip;size:45" json:"ip"`
	UserAgent string   `gorm:"column:ua;type:text" json:"ua"`
	Timestamp string   `gorm:"column:ts;size:32" json:"ts"`
	Lat       *float64 `gorm:"column:lat" json:"lat"`
	Lon       *float64 `gorm:"column:lon" json:"lon"`
	City      *string  `gorm:"column:city;size:100" json:"city"`
	Region    *string  `gorm:"column:region;size:100" json:"region"`
	Country   *string  `gorm:"column:country;size:100" json:"country"`
}

// TableName 指定表名
func (Hit) TableName() string {
	return "hits"
}
