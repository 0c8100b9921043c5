package importer

// rulesets.go declares the fixed rule sets for the three bulk-upload
// variants. Each field resolves from a prioritized list of column-header
// aliases; the first non-empty cell wins.

func init() {
	registerStudents()
	registerStaff()
	registerInternships()
}

func registerStudents() {
	Register(RuleSet{
		Name:  "students",
		Label: "Students",
		Fields: []FieldSpec{
			{Name: "studentEmail", Label: "Student Email", Aliases: []string{"Student Email", "Email", "studentEmail", "Email Address"},
				Kind: KindEmail, Identifier: true, Primary: true},
			{Name: "rollNumber", Label: "Roll Number", Aliases: []string{"Roll Number", "Roll No", "rollNumber"},
				Identifier: true},
			{Name: "enrollmentNumber", Label: "Enrollment Number", Aliases: []string{"Enrollment Number", "Enrollment No", "enrollmentNumber"},
				Identifier: true},
			{Name: "studentName", Label: "Student Name", Aliases: []string{"Student Name", "Name", "studentName"},
				Required: true},
			{Name: "parentEmail", Label: "Parent Email", Aliases: []string{"Parent Email", "Guardian Email", "parentEmail"},
				Kind: KindEmail},
			{Name: "studentPhone", Label: "Student Phone", Aliases: []string{"Student Phone", "Phone", "Mobile", "studentPhone"},
				Kind: KindPhone},
			{Name: "dateOfBirth", Label: "Date of Birth", Aliases: []string{"Date of Birth", "DOB", "dateOfBirth"},
				Kind: KindDate},
			{Name: "branch", Label: "Branch", Aliases: []string{"Branch", "Department", "branch"}},
			{Name: "semester", Label: "Semester", Aliases: []string{"Semester", "Sem", "semester"}},
		},
	})
}

func registerStaff() {
	Register(RuleSet{
		Name:  "staff",
		Label: "Staff",
		Fields: []FieldSpec{
			{Name: "email", Label: "Email", Aliases: []string{"Email", "Staff Email", "email", "Email Address"},
				Kind: KindEmail, Identifier: true, Primary: true},
			{Name: "employeeID", Label: "Employee ID", Aliases: []string{"Employee ID", "Employee Id", "Staff ID", "employeeId"},
				Identifier: true},
			{Name: "staffName", Label: "Staff Name", Aliases: []string{"Staff Name", "Name", "staffName"},
				Required: true},
			{Name: "designation", Label: "Designation", Aliases: []string{"Designation", "Role", "designation"}},
			{Name: "department", Label: "Department", Aliases: []string{"Department", "Branch", "department"}},
			{Name: "staffPhone", Label: "Staff Phone", Aliases: []string{"Staff Phone", "Phone", "Mobile", "staffPhone"},
				Kind: KindPhone},
			{Name: "joiningDate", Label: "Joining Date", Aliases: []string{"Joining Date", "Date of Joining", "joiningDate"},
				Kind: KindDate},
		},
	})
}

func registerInternships() {
	Register(RuleSet{
		Name:  "internships",
		Label: "Self-Identified Internships",
		Fields: []FieldSpec{
			{Name: "studentEmail", Label: "Student Email", Aliases: []string{"Student Email", "Email", "studentEmail", "Email Address"},
				Kind: KindEmail, Identifier: true, Primary: true},
			{Name: "rollNumber", Label: "Roll Number", Aliases: []string{"Roll Number", "Roll No", "rollNumber"},
				Identifier: true},
			{Name: "enrollmentNumber", Label: "Enrollment Number", Aliases: []string{"Enrollment Number", "Enrollment No", "enrollmentNumber"},
				Identifier: true},
			{Name: "companyName", Label: "Company Name", Aliases: []string{"Company Name", "Company", "Organization", "companyName"},
				Required: true},
			{Name: "companyEmail", Label: "Company Email", Aliases: []string{"Company Email", "companyEmail"},
				Kind: KindEmail},
			{Name: "hrName", Label: "HR Name", Aliases: []string{"HR Name", "HR Contact", "hrName"}},
			{Name: "hrEmail", Label: "HR Email", Aliases: []string{"HR Email", "hrEmail"},
				Kind: KindEmail},
			{Name: "hrPhone", Label: "HR Phone", Aliases: []string{"HR Phone", "HR Mobile", "hrPhone"},
				Kind: KindPhone},
			{Name: "mentorEmail", Label: "Mentor Email", Aliases: []string{"Mentor Email", "mentorEmail"},
				Kind: KindEmail},
			{Name: "startDate", Label: "Start Date", Aliases: []string{"Start Date", "Internship Start Date", "startDate"},
				Kind: KindDate},
			{Name: "endDate", Label: "End Date", Aliases: []string{"End Date", "Internship End Date", "endDate"},
				Kind: KindDate},
			{Name: "role", Label: "Role", Aliases: []string{"Role", "Position", "Designation", "role"}},
			{Name: "stipend", Label: "Stipend", Aliases: []string{"Stipend", "Stipend (INR)", "stipend"}},
		},
	})
}
