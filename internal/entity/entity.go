// Package entity declares the rows stored in the auth, client, product and log
// groupings. Each entity is keyed by an auto-increment id and a unique string sid.
package entity

import "time"

// Audit holds the stamp columns shared by most tables.
type Audit struct {
	CreatedBy    *string    `gorm:"column:created_by"    json:"created_by,omitempty"`
	CreatedDate  *time.Time `gorm:"column:created_date"  json:"created_date,omitempty"`
	ModifiedBy   *string    `gorm:"column:modified_by"   json:"modified_by,omitempty"`
	ModifiedDate *time.Time `gorm:"column:modified_date" json:"modified_date,omitempty"`
}

// User is a login account in the auth grouping.
type User struct {
	ID           int64   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserSid      string  `gorm:"column:user_sid"                    json:"user_sid"`
	UserPassword string  `gorm:"column:user_password"               json:"-"`
	RoleSid      *string `gorm:"column:role_sid"                    json:"role_sid,omitempty"`
	Audit        `gorm:"embedded"`
}

func (User) TableName() string { return "user" }
func (User) KeyColumn() string { return "user_sid" }

// Client is a tenant of the platform.
type Client struct {
	ID         int64   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ClientSid  string  `gorm:"column:client_sid"                  json:"client_sid"`
	ClientUID  *string `gorm:"column:client_uid"                  json:"client_uid,omitempty"`
	ClientCode string  `gorm:"column:client_code"                 json:"client_code"`
	ClientID   string  `gorm:"column:client_id"                   json:"client_id"`
	ClientKey  *string `gorm:"column:client_key"                  json:"client_key,omitempty"`
	ClientName string  `gorm:"column:client_name"                 json:"client_name"`
	Audit      `gorm:"embedded"`
}

func (Client) TableName() string { return "client" }
func (Client) KeyColumn() string { return "client_sid" }

// ClientRole is a role defined by a client.
type ClientRole struct {
	ID             int64   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ClientRoleSid  string  `gorm:"column:client_role_sid"             json:"client_role_sid"`
	ClientRoleUID  *string `gorm:"column:client_role_uid"             json:"client_role_uid,omitempty"`
	ClientRoleCode string  `gorm:"column:client_role_code"            json:"client_role_code"`
	ClientRoleName string  `gorm:"column:client_role_name"            json:"client_role_name"`
	ClientSid      string  `gorm:"column:client_sid"                  json:"client_sid"`
	Audit          `gorm:"embedded"`
}

func (ClientRole) TableName() string { return "client_role" }
func (ClientRole) KeyColumn() string { return "client_role_sid" }

// ClientUser is a person belonging to a client. Its user_sid matches the auth
// grouping's User row.
type ClientUser struct {
	ID            int64   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserSid       string  `gorm:"column:user_sid"                    json:"user_sid"`
	UserUID       *string `gorm:"column:user_uid"                    json:"user_uid,omitempty"`
	UserCode      *string `gorm:"column:user_code"                   json:"user_code,omitempty"`
	UserName      string  `gorm:"column:user_name"                   json:"user_name"`
	UserEmail     string  `gorm:"column:user_email"                  json:"user_email"`
	UserFirstName *string `gorm:"column:user_first_name"             json:"user_first_name,omitempty"`
	UserLastName  *string `gorm:"column:user_last_name"              json:"user_last_name,omitempty"`
	UserStatus    bool    `gorm:"column:user_status"                 json:"user_status"`
	ClientSid     *string `gorm:"column:client_sid"                  json:"client_sid,omitempty"`
	Audit         `gorm:"embedded"`
}

func (ClientUser) TableName() string { return "client_user" }
func (ClientUser) KeyColumn() string { return "user_sid" }

// Service is a product registered in the product grouping.
type Service struct {
	ID                 int64   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ServiceSid         string  `gorm:"column:service_sid"                 json:"service_sid"`
	ServiceUID         *string `gorm:"column:service_uid"                 json:"service_uid,omitempty"`
	ServiceCode        string  `gorm:"column:service_code"                json:"service_code"`
	ServiceID          *string `gorm:"column:service_id"                  json:"service_id,omitempty"`
	ServiceKey         *string `gorm:"column:service_key"                 json:"service_key,omitempty"`
	ServiceName        string  `gorm:"column:service_name"                json:"service_name"`
	ServiceStatus      bool    `gorm:"column:service_status"              json:"service_status"`
	ServiceDescription *string `gorm:"column:service_description"         json:"service_description,omitempty"`
	Audit              `gorm:"embedded"`
}

func (Service) TableName() string { return "service" }
func (Service) KeyColumn() string { return "service_sid" }

// ServiceConfiguration is one key/value setting of a service.
type ServiceConfiguration struct {
	ID                         int64   `gorm:"column:id;primaryKey;autoIncrement"   json:"id"`
	ServiceConfigurationSid    string  `gorm:"column:service_configuration_sid"     json:"service_configuration_sid"`
	ServiceConfigurationUID    *string `gorm:"column:service_configuration_uid"     json:"service_configuration_uid,omitempty"`
	ServiceConfigurationCode   *string `gorm:"column:service_configuration_code"    json:"service_configuration_code,omitempty"`
	ServiceSid                 string  `gorm:"column:service_sid"                   json:"service_sid"`
	ConfigurationKey           string  `gorm:"column:configuration_key"             json:"configuration_key"`
	ConfigurationValue         *string `gorm:"column:configuration_value"           json:"configuration_value,omitempty"`
	ServiceConfigurationStatus bool    `gorm:"column:service_configuration_status"  json:"service_configuration_status"`
	Audit                      `gorm:"embedded"`
}

func (ServiceConfiguration) TableName() string { return "service_configuration" }
func (ServiceConfiguration) KeyColumn() string { return "service_configuration_sid" }

// Log is a persisted audit event. log_sid is shared by the info and error rows
// of one request, so it is not unique.
type Log struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	LogSid       string     `gorm:"column:log_sid"                     json:"log_sid"`
	LogUID       *string    `gorm:"column:log_uid"                     json:"log_uid,omitempty"`
	LogCode      *string    `gorm:"column:log_code"                    json:"log_code,omitempty"`
	LogType      string     `gorm:"column:log_type"                    json:"log_type"`
	ClientSid    *string    `gorm:"column:client_sid"                  json:"client_sid,omitempty"`
	ServiceSid   *string    `gorm:"column:service_sid"                 json:"service_sid,omitempty"`
	ClassName    *string    `gorm:"column:class_name"                  json:"class_name,omitempty"`
	FunctionName *string    `gorm:"column:function_name"               json:"function_name,omitempty"`
	ActivityName *string    `gorm:"column:activity_name"               json:"activity_name,omitempty"`
	Message      *string    `gorm:"column:message"                     json:"message,omitempty"`
	Detail       *string    `gorm:"column:detail"                      json:"detail,omitempty"`
	LogDate      *string    `gorm:"column:log_date"                    json:"log_date,omitempty"`
	CreatedBy    *string    `gorm:"column:created_by"                  json:"created_by,omitempty"`
	CreatedDate  *time.Time `gorm:"column:created_date"                json:"created_date,omitempty"`
}

func (Log) TableName() string { return "log" }
func (Log) KeyColumn() string { return "log_sid" }
