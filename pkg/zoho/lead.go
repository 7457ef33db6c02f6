package zoho

// Lead is the Zoho CRM Leads payload shape. The API expects every field
// present and string-typed, so absent source values are carried as "".
type Lead struct {
	Name                 string `json:"Name"`
	Email                string `json:"Email"`
	MobileNumber         string `json:"Mobile_Number"`
	DateOfPermit         string `json:"Date_of_Permit"`
	ApplicantName        string `json:"Applicant_Name"`
	NatureOfDevelopments string `json:"Nature_of_Developments"`
	DwellingUnitInfo     string `json:"Dwelling_Unit_Info"`
	LeadSource           string `json:"Lead_Source"`
	LeadName             string `json:"Lead_Name"`
	Reference            string `json:"Reference"`
	CompanyName          string `json:"Company_Name"`
	Architect            string `json:"Architect"`
	PlanPermission       string `json:"Plan_Permission"`
	ApplicantAddress     string `json:"Applicant_Address"`
	FutureProject        string `json:"Future_Project"`
	CreationTime         string `json:"Creation_Time"`
	WhichBrandLookingFor string `json:"Which_Brand_Looking_for"`
	HowMuchSquareFeet    string `json:"How_Much_Square_Feet"`
	AreaName             string `json:"Area_Name"`
	SiteAddress          string `json:"Site_Address"`
	NoOfBathrooms        string `json:"No_of_bathrooms"`
}
