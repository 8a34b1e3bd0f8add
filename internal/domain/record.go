package domain

// ProvisioningTable is the audit table every query targets.
const ProvisioningTable = "swp_provisioning_interfaces"

// ColumnKind tells the exporter how a column's values are typed.
type ColumnKind int

const (
	KindString ColumnKind = iota
	KindNumber
	KindDate
)

func (k ColumnKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

// Column describes one column of the provisioning table.
type Column struct {
	Name string
	Kind ColumnKind
}

// Columns is the canonical column order used by selects and exports.
var Columns = []Column{
	{"pri_id", KindNumber},
	{"pri_cellular_number", KindString},
	{"pri_sim_msisdn", KindString},
	{"pri_sim_imsi", KindString},
	{"pri_action", KindString},
	{"pri_level_action", KindString},
	{"pri_status", KindString},
	{"pri_action_date", KindDate},
	{"pri_system_date", KindDate},
	{"pri_ne_type", KindString},
	{"pri_ne_id", KindString},
	{"pri_ne_service", KindString},
	{"pri_source_application", KindString},
	{"pri_source_app_id", KindNumber},
	{"pri_sis_id", KindNumber},
	{"pri_error_code", KindString},
	{"pri_message_error", KindString},
	{"pri_correlation_id", KindNumber},
	{"pri_reason_code", KindString},
	{"pri_processed_date", KindDate},
	{"pri_response_date", KindDate},
	{"pri_priority_date", KindDate},
	{"pri_in_queue", KindDate},
	{"pri_delivered_safir", KindDate},
	{"pri_received_safir", KindDate},
	{"pri_id_sended", KindNumber},
	{"pri_user_sender", KindString},
	{"pri_ne_entity", KindString},
	{"pri_acc_id", KindNumber},
	{"pri_main_pri_id", KindNumber},
	{"pri_resp_manager", KindString},
	{"pri_usr_id", KindNumber},
	{"pri_priority_usr", KindString},
	{"pri_save_last_tx_status", KindString},
	{"pri_crm_action", KindString},
	{"pri_request", KindString},
	{"pri_response", KindString},
	{"pri_sended_count", KindNumber},
	{"pri_main_sis_id", KindNumber},
	{"pri_imei", KindString},
	{"pri_card_number", KindString},
	{"pri_correlator_id", KindNumber},
}

var columnKinds = func() map[string]ColumnKind {
	m := make(map[string]ColumnKind, len(Columns))
	for _, c := range Columns {
		m[c.Name] = c.Kind
	}
	return m
}()

// KindOf returns the declared kind of a column; unknown columns are strings.
func KindOf(name string) ColumnKind {
	return columnKinds[name]
}

// ColumnNames returns the canonical column names in order.
func ColumnNames() []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i] = c.Name
	}
	return out
}

// Record is one audit row keyed by lower-case column name.
type Record map[string]any

// Normalize returns a copy holding every canonical column (missing ones as nil)
// and dropping helper columns such as the row number of legacy pagination.
func (r Record) Normalize() Record {
	out := make(Record, len(Columns))
	for _, c := range Columns {
		out[c.Name] = r[c.Name]
	}
	return out
}

// DistinctOptions lists the values available for the optional filters within
// a date range and entity id.
type DistinctOptions struct {
	Action []string `json:"action"`
	Group  []string `json:"group"`
	Status []string `json:"status"`
}
